package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, all)

	assert.Equal(t, "001_initial_schema.sql", all[0].Name)
	assert.Contains(t, all[0].SQL, "attendance_employee_date_key UNIQUE (employee_id, date)")

	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}
