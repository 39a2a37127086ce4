package service

import (
	"context"
	"fmt"
	"time"

	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/apperr"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/entity"
	"github.com/CsAbdulelah/fundy-chatgpt/internal/kyc/repository"
	"github.com/xuri/excelize/v2"
)

const (
	submissionSheet = "Submissions"
	actionSheet     = "Approval Actions"
)

var submissionExportHeaders = []string{
	"Submission ID", "Investor", "Email", "Status", "Revision",
	"Submitted At", "Approved At", "Locked At", "Approved Steps", "Total Steps",
}

var actionExportHeaders = []string{
	"Submission ID", "Step ID", "Actor ID", "Action", "Comment", "Acted At",
}

// ExportService 提交导出为 xlsx
type ExportService struct {
	repo *repository.SubmissionRepository
}

func NewExportService(repo *repository.SubmissionRepository) *ExportService {
	return &ExportService{repo: repo}
}

// Export 导出模板下全部提交及审批记录
func (s *ExportService) Export(ctx context.Context, templateID string) (*excelize.File, string, error) {
	if templateID == "" {
		return nil, "", apperr.Validation("template_id is required")
	}
	subs, err := s.repo.ListForExport(ctx, templateID)
	if err != nil {
		return nil, "", fmt.Errorf("list submissions: %w", err)
	}
	f, err := BuildSubmissionWorkbook(subs)
	if err != nil {
		return nil, "", err
	}
	return f, fmt.Sprintf("kyc_submissions_%s.xlsx", templateID), nil
}

// BuildSubmissionWorkbook 生成两张表：提交概览、审批记录
func BuildSubmissionWorkbook(subs []entity.Submission) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", submissionSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(actionSheet); err != nil {
		return nil, err
	}

	// 表头样式: 加粗
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	writeHeader(f, submissionSheet, submissionExportHeaders, headerStyle)
	writeHeader(f, actionSheet, actionExportHeaders, headerStyle)

	actionRow := 2
	for i, sub := range subs {
		row := i + 2
		investor, email := sub.InvestorUserID, ""
		if sub.Investor != nil {
			investor, email = sub.Investor.Name, sub.Investor.Email
		}
		approved := 0
		for _, st := range sub.ApprovalSteps {
			if st.Status == entity.StepStatusApproved {
				approved++
			}
		}
		f.SetCellValue(submissionSheet, fmt.Sprintf("A%d", row), sub.ID)
		f.SetCellValue(submissionSheet, fmt.Sprintf("B%d", row), investor)
		f.SetCellValue(submissionSheet, fmt.Sprintf("C%d", row), email)
		f.SetCellValue(submissionSheet, fmt.Sprintf("D%d", row), sub.Status)
		f.SetCellValue(submissionSheet, fmt.Sprintf("E%d", row), sub.Revision)
		f.SetCellValue(submissionSheet, fmt.Sprintf("F%d", row), formatTime(sub.SubmittedAt))
		f.SetCellValue(submissionSheet, fmt.Sprintf("G%d", row), formatTime(sub.ApprovedAt))
		f.SetCellValue(submissionSheet, fmt.Sprintf("H%d", row), formatTime(sub.LockedAt))
		f.SetCellValue(submissionSheet, fmt.Sprintf("I%d", row), approved)
		f.SetCellValue(submissionSheet, fmt.Sprintf("J%d", row), len(sub.ApprovalSteps))

		for _, a := range sub.ApprovalActions {
			f.SetCellValue(actionSheet, fmt.Sprintf("A%d", actionRow), a.SubmissionID)
			f.SetCellValue(actionSheet, fmt.Sprintf("B%d", actionRow), a.StepID)
			f.SetCellValue(actionSheet, fmt.Sprintf("C%d", actionRow), a.ActorID)
			f.SetCellValue(actionSheet, fmt.Sprintf("D%d", actionRow), a.Action)
			f.SetCellValue(actionSheet, fmt.Sprintf("E%d", actionRow), a.Comment)
			f.SetCellValue(actionSheet, fmt.Sprintf("F%d", actionRow), a.ActedAt.UTC().Format(time.RFC3339))
			actionRow++
		}
	}

	colWidths := []float64{38, 20, 26, 18, 8, 22, 22, 22, 14, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(submissionSheet, col, col, w)
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
