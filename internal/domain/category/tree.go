package category

import "technoplus/internal/domain/record"

// BuildTree собирает плоский список в дерево: узлы группируются по parent_id,
// узлы без родителя (или с неизвестным родителем) становятся корнями.
// Узлы, замкнутые в цикл, тоже попадают в корни, каждый узел встречается ровно один раз.
func BuildTree(flat []Category) []Category {
	known := make(map[string]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	children := make(map[string][]Category)
	var roots []Category
	for _, c := range flat {
		if c.ParentID == "" || c.ParentID == c.ID || !known[c.ParentID] {
			roots = append(roots, c)
			continue
		}
		children[c.ParentID] = append(children[c.ParentID], c)
	}

	seen := make(map[string]bool, len(flat))
	var attach func(c Category) Category
	attach = func(c Category) Category {
		seen[c.ID] = true
		c.Children = nil
		for _, ch := range children[c.ID] {
			if seen[ch.ID] {
				continue
			}
			c.Children = append(c.Children, attach(ch))
		}
		return c
	}

	out := make([]Category, 0, len(roots))
	for _, r := range roots {
		out = append(out, attach(r))
	}
	for _, c := range flat {
		if !seen[c.ID] {
			out = append(out, attach(c))
		}
	}

	return out
}

// Walk обходит дерево в глубину, родитель раньше детей.
func Walk(roots []Category, fn func(Category)) {
	for _, r := range roots {
		fn(r)
		Walk(r.Children, fn)
	}
}

// FromRecords собирает дерево из строк коллекции. Возвращает корни и строки
// для хранения: каждая категория вместе со своим поддеревом.
func FromRecords(recs []record.Record) ([]Category, []record.Record, error) {
	flat, err := record.DecodeAll[Category](recs)
	if err != nil {
		return nil, nil, err
	}
	for i := range flat {
		flat[i].ID = recs[i].ID
	}

	roots := BuildTree(flat)

	out := make([]record.Record, 0, len(flat))
	var encodeErr error
	Walk(roots, func(c Category) {
		if encodeErr != nil {
			return
		}
		r, err := record.Encode(c.ID, c)
		if err != nil {
			encodeErr = err
			return
		}
		out = append(out, r)
	})
	if encodeErr != nil {
		return nil, nil, encodeErr
	}

	return roots, out, nil
}
