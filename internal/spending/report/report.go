// Package report assembles the project spending report consumed by
// presentation and export collaborators.
package report

import (
	"fmt"
	"sort"
	"time"

	projectsdomain "github.com/timeledger/timeledger-backend/internal/projects/domain"
	"github.com/timeledger/timeledger-backend/internal/spending/aggregate"
	"github.com/timeledger/timeledger-backend/internal/spending/budget"
	"github.com/timeledger/timeledger-backend/internal/spending/fiscal"
	"github.com/timeledger/timeledger-backend/internal/spending/projection"
	timedomain "github.com/timeledger/timeledger-backend/internal/timeentries/domain"
	usersdomain "github.com/timeledger/timeledger-backend/internal/users/domain"
)

type Input struct {
	Project *projectsdomain.Project
	Entries []timedomain.TimeEntry
	Budget  projectsdomain.Budget
	AsOf    time.Time
	Rates   aggregate.RateFn
	// Users supplies display names for employee rows; missing entries just
	// leave the name blank.
	Users map[string]*usersdomain.User
}

type EmployeeRow struct {
	UserID  string             `json:"user_id"`
	Name    string             `json:"name,omitempty"`
	Buckets *aggregate.Buckets `json:"buckets"`
}

// ProjectReport is the composed spending picture for one project: the
// per-employee and project matrices, budget status per quarter and in total,
// and the current quarter's burn projection. IsValid is false when any entry
// was rejected; the numbers are still the best-effort aggregates.
type ProjectReport struct {
	Project        *projectsdomain.Project `json:"project"`
	AsOf           time.Time               `json:"as_of"`
	IsValid        bool                    `json:"is_valid"`
	Errors         []aggregate.EntryError  `json:"errors,omitempty"`
	Employees      []EmployeeRow           `json:"employees"`
	ProjectTotals  *aggregate.Buckets      `json:"project_totals"`
	QuarterStatus  map[int]budget.Status   `json:"quarter_status"`
	TotalStatus    budget.Status           `json:"total_status"`
	CurrentQuarter int                     `json:"current_quarter"`
	Projection     projection.Result       `json:"projection"`
	BudgetWarning  string                  `json:"budget_warning,omitempty"`
}

// Build aggregates the entries and evaluates them against the budget. Pure
// composition over the engine packages: no I/O, deterministic for a given
// input.
func Build(in Input) *ProjectReport {
	res := aggregate.Spending(in.Entries, in.Rates)

	rep := &ProjectReport{
		Project:       in.Project,
		AsOf:          in.AsOf,
		IsValid:       res.Valid(),
		Errors:        res.Errors,
		Employees:     employeeRows(res, in.Users),
		ProjectTotals: res.Totals,
		QuarterStatus: make(map[int]budget.Status, 4),
		TotalStatus:   budget.Evaluate(res.Totals.Total.Cost, in.Budget.Total),
	}

	for q := 1; q <= 4; q++ {
		rep.QuarterStatus[q] = budget.Evaluate(res.Totals.QuarterCost(q), in.Budget.ForQuarter(q))
	}

	if !in.Budget.SumMatchesTotal() {
		rep.BudgetWarning = fmt.Sprintf(
			"quarterly budgets sum to %s but total budget is %s",
			in.Budget.QuarterSum(), in.Budget.Total,
		)
	}

	rep.CurrentQuarter, rep.Projection = projectCurrentQuarter(res, in)
	return rep
}

func projectCurrentQuarter(res *aggregate.Result, in Input) (int, projection.Result) {
	q, err := fiscal.QuarterOf(in.AsOf)
	if err != nil {
		return 0, projection.Estimate(projection.Input{})
	}
	start, end, err := fiscal.QuarterRange(in.AsOf)
	if err != nil {
		return q, projection.Estimate(projection.Input{})
	}
	return q, projection.Estimate(projection.Input{
		SpentToDate:   res.Totals.QuarterCost(q),
		QuarterBudget: in.Budget.ForQuarter(q),
		AsOf:          in.AsOf,
		QuarterStart:  start,
		QuarterEnd:    end,
	})
}

func employeeRows(res *aggregate.Result, users map[string]*usersdomain.User) []EmployeeRow {
	rows := make([]EmployeeRow, 0, len(res.PerEmployee))
	for id, b := range res.PerEmployee {
		row := EmployeeRow{UserID: id, Buckets: b}
		if u, ok := users[id]; ok {
			row.Name = u.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}
