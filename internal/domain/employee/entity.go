package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           string
	FullName     string
	Department   *string
	Position     *string
	Status       EmploymentStatus
	Wage         *decimal.Decimal // hourly
	OvertimeRate *decimal.Decimal // multiplier applied to Wage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusInactive   EmploymentStatus = "inactive"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// WageProfile holds the pay inputs of a summary.
type WageProfile struct {
	Wage         decimal.Decimal
	OvertimeRate decimal.Decimal
}

// WageDefaults are applied when an employee has no wage or overtime rate.
type WageDefaults struct {
	Wage         decimal.Decimal
	OvertimeRate decimal.Decimal
}

// Profile resolves the employee's wage profile, filling gaps from defaults.
func (e Employee) Profile(defaults WageDefaults) WageProfile {
	profile := WageProfile{Wage: defaults.Wage, OvertimeRate: defaults.OvertimeRate}
	if e.Wage != nil {
		profile.Wage = *e.Wage
	}
	if e.OvertimeRate != nil {
		profile.OvertimeRate = *e.OvertimeRate
	}
	return profile
}
