// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shifta/shifta/pkg/errors"
	"github.com/shifta/shifta/pkg/model"
	"github.com/shifta/shifta/pkg/stats"
)

// StatsRequest 统计分析请求
type StatsRequest struct {
	Employees   []EmployeeInput   `json:"employees" validate:"required,min=1,dive"`
	JobTypes    []JobTypeInput    `json:"job_types" validate:"required,min=1,dive"`
	Slots       []SlotInput       `json:"slots" validate:"required,min=1,dive"`
	Assignments []AssignmentInput `json:"assignments" validate:"omitempty,dive"`
}

// AssignmentInput 分配输入
type AssignmentInput struct {
	SlotID     string `json:"slot_id" validate:"omitempty,uuid"`
	EmployeeID string `json:"employee_id" validate:"required,uuid"`
	JobTypeID  string `json:"job_type_id" validate:"required,uuid"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime  string `json:"start_time" validate:"required"` // RFC3339
	EndTime    string `json:"end_time" validate:"required"`   // RFC3339
}

// GetStatsHandler 对给定方案计算汇总统计
func GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := validateStruct(&req); err != nil {
		respondError(w, err)
		return
	}

	input := &model.Input{}
	for _, e := range req.Employees {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式: "+e.ID))
			return
		}
		input.Employees = append(input.Employees, &model.Employee{ID: id, Name: e.Name})
	}
	for _, jt := range req.JobTypes {
		id, err := uuid.Parse(jt.ID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+jt.ID))
			return
		}
		input.JobTypes = append(input.JobTypes, &model.JobType{
			ID:            id,
			Name:          jt.Name,
			StartTime:     jt.StartTime,
			EndTime:       jt.EndTime,
			RequiredStaff: jt.RequiredStaff,
		})
	}
	for _, s := range req.Slots {
		jtID, err := uuid.Parse(s.JobTypeID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+s.JobTypeID))
			return
		}
		input.Slots = append(input.Slots, model.NewSlot(s.Date, jtID))
	}

	var assignments []*model.Assignment
	for _, a := range req.Assignments {
		empID, err := uuid.Parse(a.EmployeeID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的员工ID格式: "+a.EmployeeID))
			return
		}
		jtID, err := uuid.Parse(a.JobTypeID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的职种ID格式: "+a.JobTypeID))
			return
		}
		start, err := time.Parse(time.RFC3339, a.StartTime)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的开始时刻格式: "+a.StartTime))
			return
		}
		end, err := time.Parse(time.RFC3339, a.EndTime)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的结束时刻格式: "+a.EndTime))
			return
		}
		slotID := model.NewSlot(a.Date, jtID).ID
		if a.SlotID != "" {
			slotID, err = uuid.Parse(a.SlotID)
			if err != nil {
				respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的槽位ID格式: "+a.SlotID))
				return
			}
		}
		assignments = append(assignments, &model.Assignment{
			ID:         model.NewAssignmentID(slotID, empID),
			SlotID:     slotID,
			EmployeeID: empID,
			JobTypeID:  jtID,
			Date:       a.Date,
			StartTime:  start,
			EndTime:    end,
		})
	}

	respondJSON(w, http.StatusOK, stats.Compute(input, assignments))
}
