package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JustJay7/court-case-engine/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QueryLog struct {
	gorm.Model
	CaseType        string         `json:"case_type"`
	CaseNumber      string         `json:"case_number"`
	FilingYear      string         `json:"filing_year"`
	Status          string         `json:"status" gorm:"size:16;index"`
	ErrorDetail     string         `json:"error_detail"`
	ErrorMessage    string         `json:"error_message" gorm:"type:text"`
	Provenance      string         `json:"provenance"`
	ResultingRecord datatypes.JSON `json:"resulting_record"`
	QueryTime       time.Time      `json:"query_time"`
}

type CaseInfo struct {
	gorm.Model
	CaseType    string  `json:"case_type" gorm:"uniqueIndex:idx_case_key"`
	CaseNumber  string  `json:"case_number" gorm:"uniqueIndex:idx_case_key"`
	FilingYear  string  `json:"filing_year" gorm:"uniqueIndex:idx_case_key"`
	FilingDate  string  `json:"filing_date"`
	NextHearing string  `json:"next_hearing"`
	Status      string  `json:"status"`
	Provenance  string  `json:"provenance" gorm:"index"`
	Parties     []Party `json:"parties" gorm:"foreignKey:CaseInfoID"`
	Orders      []Order `json:"orders" gorm:"foreignKey:CaseInfoID"`
}

type Party struct {
	gorm.Model
	CaseInfoID uint   `json:"case_info_id" gorm:"index"`
	Position   int    `json:"position"`
	Name       string `json:"name"`
	Type       string `json:"type"`
}

type Order struct {
	gorm.Model
	CaseInfoID  uint   `json:"case_info_id" gorm:"index"`
	Position    int    `json:"position"`
	OrderDate   string `json:"order_date"`
	Description string `json:"description"`
	PDFLink     string `json:"pdf_link"`
}

func (QueryLog) TableName() string {
	return "query_logs"
}

func (CaseInfo) TableName() string {
	return "case_infos"
}

func (Party) TableName() string {
	return "parties"
}

func (Order) TableName() string {
	return "orders"
}

func newCaseInfo(key model.QueryKey, record *model.CaseRecord) *CaseInfo {
	info := &CaseInfo{
		CaseType:    key.CaseType,
		CaseNumber:  key.CaseNumber,
		FilingYear:  key.FilingYear,
		FilingDate:  record.FilingDate,
		NextHearing: record.NextHearingDate,
		Status:      record.CaseStatus,
		Provenance:  string(record.Provenance),
	}
	for i, p := range record.Parties {
		info.Parties = append(info.Parties, Party{Position: i, Name: p.Name, Type: string(p.Role)})
	}
	for i, o := range record.Orders {
		info.Orders = append(info.Orders, Order{Position: i, OrderDate: o.Date, Description: o.Description, PDFLink: o.DocumentRef})
	}
	return info
}

func (c *CaseInfo) key() model.QueryKey {
	return model.QueryKey{CaseType: c.CaseType, CaseNumber: c.CaseNumber, FilingYear: c.FilingYear}
}

// Record converts the row and its preloaded children back to a case record.
func (c *CaseInfo) Record() *model.CaseRecord {
	record := &model.CaseRecord{
		FilingDate:      c.FilingDate,
		NextHearingDate: c.NextHearing,
		CaseStatus:      c.Status,
		Provenance:      model.Provenance(c.Provenance),
	}
	for _, p := range c.Parties {
		record.Parties = append(record.Parties, model.Party{Role: model.Role(p.Type), Name: p.Name})
	}
	for _, o := range c.Orders {
		record.Orders = append(record.Orders, model.Order{Date: o.OrderDate, Description: o.Description, DocumentRef: o.PDFLink})
	}
	return record
}

func (q *QueryLog) entry() (model.QueryLogEntry, error) {
	e := model.QueryLogEntry{
		ID:           q.ID,
		Key:          model.QueryKey{CaseType: q.CaseType, CaseNumber: q.CaseNumber, FilingYear: q.FilingYear},
		Timestamp:    q.QueryTime,
		Status:       model.QueryStatus(q.Status),
		ErrorDetail:  q.ErrorDetail,
		ErrorMessage: q.ErrorMessage,
	}
	if len(q.ResultingRecord) > 0 {
		var record model.CaseRecord
		if err := json.Unmarshal(q.ResultingRecord, &record); err != nil {
			return e, fmt.Errorf("failed to decode record of query log %d: %w", q.ID, err)
		}
		e.ResultingRecord = &record
	}
	return e, nil
}
