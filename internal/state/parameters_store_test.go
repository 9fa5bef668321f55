package state

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadParametersInfrastructureErrorIsNotNoActiveSet(t *testing.T) {
	// An uninitialized connection is an infrastructure failure; callers
	// must not mistake it for an empty table and seed defaults over a
	// populated database.
	prev := DB
	DB = nil
	defer func() { DB = prev }()

	_, _, err := LoadActiveProtectionParameters("default")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoActiveParameters))
}

func TestErrNoActiveParametersWrapping(t *testing.T) {
	// The no-rows path wraps the sentinel so errors.Is works through the
	// config-name annotation.
	err := fmt.Errorf("%w for config %q", ErrNoActiveParameters, "default")
	assert.True(t, errors.Is(err, ErrNoActiveParameters))
	assert.False(t, errors.Is(err, sql.ErrNoRows))
}
