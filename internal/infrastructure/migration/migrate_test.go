package migration

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockMigrator - мок для интерфейса Migrator
type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

func TestMigration_Up_Success(t *testing.T) {
	mockM := new(MockMigrator)

	// Настраиваем поведение
	mockM.On("Up").Return(nil)
	mockM.On("Close").Return(nil, nil)

	// Инжектим мок через фабрику
	engine := func() (Migrator, error) {
		return mockM, nil
	}

	mg := NewMigration(engine)
	err := mg.Up()

	assert.NoError(t, err)
	mockM.AssertExpectations(t)
}

func TestMigration_Up_NoChange(t *testing.T) {
	mockM := new(MockMigrator)

	// ErrNoChange не должна считаться ошибкой в методе Up()
	mockM.On("Up").Return(migrate.ErrNoChange)
	mockM.On("Close").Return(nil, nil)

	engine := func() (Migrator, error) {
		return mockM, nil
	}

	mg := NewMigration(engine)
	err := mg.Up()

	assert.NoError(t, err)
}

func TestMigration_Up_EngineError(t *testing.T) {
	// Ошибка на этапе создания мигратора (например, неверный драйвер)
	engine := func() (Migrator, error) {
		return nil, errors.New("engine crash")
	}

	mg := NewMigration(engine)
	err := mg.Up()

	assert.Error(t, err)
	assert.Equal(t, "engine crash", err.Error())
}

func TestMigration_Up_CloseErrorsSurface(t *testing.T) {
	mockM := new(MockMigrator)
	upErr := errors.New("dirty database version 2")

	mockM.On("Up").Return(upErr)
	mockM.On("Close").Return(errors.New("source closed"), errors.New("db closed"))

	mg := NewMigration(func() (Migrator, error) { return mockM, nil })
	err := mg.Up()

	assert.ErrorIs(t, err, upErr)
	assert.Contains(t, err.Error(), "source closed")
	assert.Contains(t, err.Error(), "db closed")
}
