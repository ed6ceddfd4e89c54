// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/model"
)

// Run 排班运行记录
type Run struct {
	ID              uuid.UUID         `json:"id"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	Status          string            `json:"status"` // pending/running 或 model.RunStatus
	RelaxationLevel int               `json:"relaxation_level"`
	ElapsedMs       int64             `json:"elapsed_ms"`
	Statistics      *model.Statistics `json:"statistics,omitempty"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	Log             []string          `json:"log,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// RunAssignment 排班分配记录
type RunAssignment struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	SlotID     uuid.UUID `json:"slot_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	JobTypeID  uuid.UUID `json:"job_type_id"`
	Date       string    `json:"date"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunConflict 排班冲突记录
type RunConflict struct {
	ID        int64     `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity"`
	Date      string    `json:"date,omitempty"`
	Level     int       `json:"level,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// RunRepositoryInterface 运行仓储接口
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, filter ListFilter) ([]*Run, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveResult(ctx context.Context, result *model.RunResult) error
	SaveFailure(ctx context.Context, id uuid.UUID, message string) error
	AppendLog(ctx context.Context, id uuid.UUID, line string) error

	GetAssignments(ctx context.Context, runID uuid.UUID) ([]*RunAssignment, error)
	GetConflicts(ctx context.Context, runID uuid.UUID) ([]*RunConflict, error)
}

// RunRepository 运行仓储实现
type RunRepository struct {
	db DB
}

// NewRunRepository 创建运行仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create 创建运行记录
func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = "pending"
	}

	logJSON, _ := json.Marshal(run.Log)

	query := `
		INSERT INTO runs (
			id, start_date, end_date, status, relaxation_level,
			elapsed_ms, statistics, error_message, log, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	statsJSON, _ := json.Marshal(run.Statistics)

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.StartDate, run.EndDate, run.Status, run.RelaxationLevel,
		run.ElapsedMs, statsJSON, run.ErrorMessage, logJSON, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建运行记录失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取运行记录
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := `
		SELECT id, start_date, end_date, status, relaxation_level,
			elapsed_ms, statistics, error_message, log, created_at, updated_at
		FROM runs WHERE id = $1
	`

	run := &Run{}
	var statsJSON, logJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.StartDate, &run.EndDate, &run.Status, &run.RelaxationLevel,
		&run.ElapsedMs, &statsJSON, &run.ErrorMessage, &logJSON, &run.CreatedAt, &run.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}

	if len(statsJSON) > 0 {
		_ = json.Unmarshal(statsJSON, &run.Statistics)
	}
	if len(logJSON) > 0 {
		_ = json.Unmarshal(logJSON, &run.Log)
	}

	return run, nil
}

// List 查询运行记录列表
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*Run, int, error) {
	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("start_date >= $%d", argIdx))
		args = append(args, filter.StartDate)
		argIdx++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("end_date <= $%d", argIdx))
		args = append(args, filter.EndDate)
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM runs " + whereClause
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("统计运行记录失败: %w", err)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		orderDir = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := fmt.Sprintf(`
		SELECT id, start_date, end_date, status, relaxation_level,
			elapsed_ms, statistics, error_message, log, created_at, updated_at
		FROM runs %s ORDER BY %s %s LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIdx, argIdx+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询运行记录列表失败: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var statsJSON, logJSON []byte
		if err := rows.Scan(
			&run.ID, &run.StartDate, &run.EndDate, &run.Status, &run.RelaxationLevel,
			&run.ElapsedMs, &statsJSON, &run.ErrorMessage, &logJSON, &run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("扫描运行记录失败: %w", err)
		}
		if len(statsJSON) > 0 {
			_ = json.Unmarshal(statsJSON, &run.Statistics)
		}
		if len(logJSON) > 0 {
			_ = json.Unmarshal(logJSON, &run.Log)
		}
		runs = append(runs, run)
	}

	return runs, total, rows.Err()
}

// UpdateStatus 更新运行状态
func (r *RunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("更新运行状态失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveResult 保存运行结果（状态、统计、分配、冲突）
func (r *RunRepository) SaveResult(ctx context.Context, result *model.RunResult) error {
	now := time.Now()

	statsJSON, _ := json.Marshal(result.Statistics)

	query := `
		UPDATE runs SET status = $1, relaxation_level = $2, elapsed_ms = $3,
			statistics = $4, updated_at = $5
		WHERE id = $6
	`
	if _, err := r.db.ExecContext(ctx, query,
		string(result.Status), result.RelaxationLevel, result.Elapsed.Milliseconds(),
		statsJSON, now, result.RunID,
	); err != nil {
		return fmt.Errorf("更新运行结果失败: %w", err)
	}

	// 结果可重复写入：先清空再插入
	if _, err := r.db.ExecContext(ctx, `DELETE FROM run_assignments WHERE run_id = $1`, result.RunID); err != nil {
		return fmt.Errorf("清空历史分配失败: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM run_conflicts WHERE run_id = $1`, result.RunID); err != nil {
		return fmt.Errorf("清空历史冲突失败: %w", err)
	}

	for _, a := range result.Assignments {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO run_assignments (
				id, run_id, slot_id, employee_id, job_type_id,
				date, start_time, end_time, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, a.ID, result.RunID, a.SlotID, a.EmployeeID, a.JobTypeID,
			a.Date, a.StartTime, a.EndTime, now,
		); err != nil {
			return fmt.Errorf("保存分配记录失败: %w", err)
		}
	}

	for _, c := range result.Conflicts {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO run_conflicts (run_id, kind, severity, date, level, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, result.RunID, string(c.Kind), string(c.Severity), c.Date, c.Level, c.Message, now,
		); err != nil {
			return fmt.Errorf("保存冲突记录失败: %w", err)
		}
	}

	return nil
}

// SaveFailure 记录失败状态和错误信息
func (r *RunRepository) SaveFailure(ctx context.Context, id uuid.UUID, message string) error {
	query := `UPDATE runs SET status = $1, error_message = $2, updated_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, string(model.StatusFatalError), message, time.Now(), id); err != nil {
		return fmt.Errorf("记录失败状态失败: %w", err)
	}
	return nil
}

// AppendLog 追加运行日志
func (r *RunRepository) AppendLog(ctx context.Context, id uuid.UUID, line string) error {
	entry, _ := json.Marshal([]string{fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), line)})
	query := `UPDATE runs SET log = COALESCE(log, '[]'::jsonb) || $1::jsonb, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, entry, time.Now(), id); err != nil {
		return fmt.Errorf("追加运行日志失败: %w", err)
	}
	return nil
}

// GetAssignments 获取运行的分配记录
func (r *RunRepository) GetAssignments(ctx context.Context, runID uuid.UUID) ([]*RunAssignment, error) {
	query := `
		SELECT id, run_id, slot_id, employee_id, job_type_id,
			date, start_time, end_time, created_at
		FROM run_assignments WHERE run_id = $1
		ORDER BY date, start_time, employee_id
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("查询分配记录失败: %w", err)
	}
	defer rows.Close()

	var assignments []*RunAssignment
	for rows.Next() {
		a := &RunAssignment{}
		if err := rows.Scan(
			&a.ID, &a.RunID, &a.SlotID, &a.EmployeeID, &a.JobTypeID,
			&a.Date, &a.StartTime, &a.EndTime, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描分配记录失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// GetConflicts 获取运行的冲突记录
func (r *RunRepository) GetConflicts(ctx context.Context, runID uuid.UUID) ([]*RunConflict, error) {
	query := `
		SELECT id, run_id, kind, severity, date, level, message, created_at
		FROM run_conflicts WHERE run_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("查询冲突记录失败: %w", err)
	}
	defer rows.Close()

	var conflicts []*RunConflict
	for rows.Next() {
		c := &RunConflict{}
		if err := rows.Scan(
			&c.ID, &c.RunID, &c.Kind, &c.Severity, &c.Date, &c.Level, &c.Message, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("扫描冲突记录失败: %w", err)
		}
		conflicts = append(conflicts, c)
	}

	return conflicts, rows.Err()
}
