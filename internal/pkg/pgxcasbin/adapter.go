package pgxcasbin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/atomic"
)

// ruleColumns is the number of value columns per policy row (v0..v5).
const ruleColumns = 6

const defaultTableName = "casbin_rule"

// Querier defines the pgx operations the adapter requires. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	Begin(context.Context) (pgx.Tx, error)
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Adapter stores and retrieves Casbin policies through pgx.
type Adapter struct {
	db       Querier
	table    string
	filtered *atomic.Bool
}

var (
	_ persist.Adapter             = (*Adapter)(nil)
	_ persist.ContextAdapter      = (*Adapter)(nil)
	_ persist.BatchAdapter        = (*Adapter)(nil)
	_ persist.ContextBatchAdapter = (*Adapter)(nil)
	_ persist.FilteredAdapter     = (*Adapter)(nil)
)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithTableName overrides the policy table name.
func WithTableName(name string) AdapterOption {
	return func(a *Adapter) { a.table = name }
}

// NewAdapter creates a pgx-backed Casbin adapter.
func NewAdapter(ctx context.Context, db interface {
	Querier
	Ping(context.Context) error
}, opts ...AdapterOption,
) (*Adapter, error) {
	if err := db.Ping(ctx); err != nil {
		return nil, errors.Join(ErrPing, err)
	}

	a := &Adapter{
		db:       db,
		table:    defaultTableName,
		filtered: atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// LoadPolicyCtx loads all policies into the model.
func (a *Adapter) LoadPolicyCtx(ctx context.Context, m model.Model) error {
	a.filtered.Store(false)
	lines, err := a.selectWhere(ctx, "")
	if err != nil {
		return err
	}
	return loadLines(m, lines)
}

// SavePolicyCtx truncates the table and writes all policies from the model.
func (a *Adapter) SavePolicyCtx(ctx context.Context, m model.Model) (err error) {
	tx, err := a.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if _, err = tx.Exec(ctx, "truncate table "+a.table+" restart identity"); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range collectRules(m) {
		args, qErr := insertArgs(line[0], line[1:])
		if qErr != nil {
			return qErr
		}
		batch.Queue(a.insertSQL(), args...)
	}
	if batch.Len() > 0 {
		if err = execBatch(tx.SendBatch(ctx, batch), batch.Len()); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// AddPolicyCtx adds a single policy rule.
func (a *Adapter) AddPolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	args, err := insertArgs(ptype, rule)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(ctx, a.insertSQL(), args...)
	return err
}

// AddPoliciesCtx adds multiple policy rules in one batch.
func (a *Adapter) AddPoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rule := range rules {
		args, err := insertArgs(ptype, rule)
		if err != nil {
			return err
		}
		batch.Queue(a.insertSQL(), args...)
	}
	return execBatch(a.db.SendBatch(ctx, batch), batch.Len())
}

// RemovePolicyCtx removes a single policy rule.
func (a *Adapter) RemovePolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	args, err := insertArgs(ptype, rule)
	if err != nil {
		return err
	}
	_, err = a.db.Exec(ctx, a.deleteSQL(), args...)
	return err
}

// RemovePoliciesCtx removes multiple policy rules in one batch.
func (a *Adapter) RemovePoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	if len(rules) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rule := range rules {
		args, err := insertArgs(ptype, rule)
		if err != nil {
			return err
		}
		batch.Queue(a.deleteSQL(), args...)
	}
	return execBatch(a.db.SendBatch(ctx, batch), batch.Len())
}

// RemoveFilteredPolicyCtx removes policy rules matching the filter.
func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, _ string, ptype string, fieldIndex int, fieldValues ...string) error {
	if ptype == "" {
		return ErrEmptyPolicyType
	}
	if len(fieldValues) > ruleColumns-fieldIndex {
		return fmt.Errorf("%w: %d values from index %d", ErrRuleTooLong, len(fieldValues), fieldIndex)
	}

	conditions := []string{"ptype = $1"}
	args := []any{ptype}
	for i, value := range fieldValues {
		if value == "" {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, "v"+strconv.Itoa(i+fieldIndex)+" = $"+strconv.Itoa(len(args)))
	}

	_, err := a.db.Exec(ctx, "delete from "+a.table+" where "+strings.Join(conditions, " and "), args...)
	return err
}

// LoadFilteredPolicyCtx loads only policies matching the filter. The
// filter must be a map from policy type to OR-related field value sets.
func (a *Adapter) LoadFilteredPolicyCtx(ctx context.Context, m model.Model, filter any) error {
	if filter == nil {
		return a.LoadPolicyCtx(ctx, m)
	}
	ft, ok := filter.(map[string][][]string)
	if !ok {
		return fmt.Errorf("%w: got %T, want map[string][][]string", ErrInvalidFilter, filter)
	}

	a.filtered.Store(true)
	seen := make(map[string]struct{})
	var lines [][]string
	for ptype, valueSets := range ft {
		for _, values := range valueSets {
			rows, err := a.selectWhere(ctx, ptype, values...)
			if err != nil {
				return err
			}
			for _, row := range rows {
				key := strings.Join(row, ",")
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				lines = append(lines, row)
			}
		}
	}
	return loadLines(m, lines)
}

// IsFilteredCtx reports whether the last load used a filter.
func (a *Adapter) IsFilteredCtx(context.Context) bool {
	return a.filtered.Load()
}

// LoadPolicy loads all policies into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	return a.LoadPolicyCtx(context.Background(), m)
}

// SavePolicy persists all policies from the model.
func (a *Adapter) SavePolicy(m model.Model) error {
	return a.SavePolicyCtx(context.Background(), m)
}

// AddPolicy adds a single policy rule.
func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, rule)
}

// AddPolicies adds multiple policy rules.
func (a *Adapter) AddPolicies(sec string, ptype string, rules [][]string) error {
	return a.AddPoliciesCtx(context.Background(), sec, ptype, rules)
}

// RemovePolicy removes a single policy rule.
func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, rule)
}

// RemovePolicies removes multiple policy rules.
func (a *Adapter) RemovePolicies(sec string, ptype string, rules [][]string) error {
	return a.RemovePoliciesCtx(context.Background(), sec, ptype, rules)
}

// RemoveFilteredPolicy removes policy rules matching the filter.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

// LoadFilteredPolicy loads only policies matching the filter.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	return a.LoadFilteredPolicyCtx(context.Background(), m, filter)
}

// IsFiltered reports whether the last load used a filter.
func (a *Adapter) IsFiltered() bool {
	return a.IsFilteredCtx(context.Background())
}

func (a *Adapter) insertSQL() string {
	return "insert into " + a.table +
		" (ptype, " + columnList() + ") values (" + placeholderList() + ")" +
		" on conflict (ptype, " + columnList() + ") do nothing"
}

func (a *Adapter) deleteSQL() string {
	conditions := make([]string, 0, 1+ruleColumns)
	conditions = append(conditions, "ptype = $1")
	for i := range ruleColumns {
		conditions = append(conditions, "v"+strconv.Itoa(i)+" = $"+strconv.Itoa(i+2))
	}
	return "delete from " + a.table + " where " + strings.Join(conditions, " and ")
}

func (a *Adapter) selectWhere(ctx context.Context, ptype string, fieldValues ...string) ([][]string, error) {
	if len(fieldValues) > ruleColumns {
		return nil, fmt.Errorf("%w: %d values", ErrRuleTooLong, len(fieldValues))
	}

	query := "select ptype, " + columnList() + " from " + a.table
	var conditions []string
	var args []any
	if ptype != "" {
		args = append(args, ptype)
		conditions = append(conditions, "ptype = $1")
	}
	for i, value := range fieldValues {
		if value == "" {
			continue
		}
		args = append(args, value)
		conditions = append(conditions, "v"+strconv.Itoa(i)+" = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " where " + strings.Join(conditions, " and ")
	}

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		cols := make([]sql.NullString, 1+ruleColumns)
		scan := make([]any, len(cols))
		for i := range cols {
			scan[i] = &cols[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}

		line := make([]string, len(cols))
		for i, col := range cols {
			line[i] = col.String
		}
		result = append(result, trimTrailingEmpty(line))
	}
	return result, rows.Err()
}

func columnList() string {
	cols := make([]string, ruleColumns)
	for i := range cols {
		cols[i] = "v" + strconv.Itoa(i)
	}
	return strings.Join(cols, ", ")
}

func placeholderList() string {
	refs := make([]string, 1+ruleColumns)
	for i := range refs {
		refs[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(refs, ", ")
}

func insertArgs(ptype string, rule []string) ([]any, error) {
	if len(rule) > ruleColumns {
		return nil, fmt.Errorf("%w: %d values", ErrRuleTooLong, len(rule))
	}
	args := make([]any, 1+ruleColumns)
	args[0] = ptype
	for i := range ruleColumns {
		if i < len(rule) {
			args[i+1] = rule[i]
		} else {
			args[i+1] = ""
		}
	}
	return args, nil
}

func execBatch(br pgx.BatchResults, n int) error {
	for range n {
		if _, err := br.Exec(); err != nil {
			return errors.Join(err, br.Close())
		}
	}
	return br.Close()
}

func collectRules(m model.Model) [][]string {
	var rules [][]string
	for _, section := range []string{"p", "g"} {
		for ptype, ast := range m[section] {
			for _, rule := range ast.Policy {
				line := make([]string, 1+len(rule))
				line[0] = ptype
				copy(line[1:], rule)
				rules = append(rules, line)
			}
		}
	}
	return rules
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

func trimTrailingEmpty(line []string) []string {
	last := len(line) - 1
	for last >= 0 && line[last] == "" {
		last--
	}
	return line[:last+1]
}
