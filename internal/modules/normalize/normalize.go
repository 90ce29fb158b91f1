// Package normalize turns raw production records into canonical EmployeeRecords.
//
// The upstream RTMS backend emits records in at least two naming schemes
// (snake_case and the SQL Server PascalCase column names), sometimes mixed on
// the same record. Each canonical field resolves through an ordered alias
// table; the first usable value wins. Malformed or missing input never fails:
// identifiers fall back to level placeholders and numerics to zero, so every
// record is insertable into the hierarchy.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fabricpulse/rtms/internal/modules/classification"
)

// RawRecord is an untyped record as decoded from the upstream feed.
type RawRecord map[string]interface{}

// Level placeholders used when an identifier is absent from the raw record.
const (
	DefaultUnit      = "UNIT-DEFAULT"
	DefaultFloor     = "FLOOR-DEFAULT"
	DefaultLine      = "LINE-DEFAULT"
	DefaultStyle     = "STYLE-DEFAULT"
	DefaultPart      = "PART-DEFAULT"
	DefaultOperation = "OPERATION-DEFAULT"
	DefaultDevice    = "DEVICE-DEFAULT"
	DefaultEmpCode   = "EMP-DEFAULT"
)

// EmployeeRecord is a fully-populated production record for one employee.
// Immutable once constructed; discarded on the next rebuild.
type EmployeeRecord struct {
	EmpCode string `json:"emp_code"`
	EmpName string `json:"emp_name"`

	Unit      string `json:"unit_code"`
	Floor     string `json:"floor_name"`
	Line      string `json:"line_name"`
	Style     string `json:"style_no"`
	Part      string `json:"part_name"`
	Operation string `json:"new_oper_seq"`
	Device    string `json:"device_id"`

	// OperationName is the human-readable operation label (the upstream
	// Operation column), distinct from the NewOperSeq grouping key.
	OperationName string `json:"operation"`

	Production int     `json:"production"`
	Target     int     `json:"target"`
	Efficiency float64 `json:"efficiency"`

	// ReportedEfficiency is the upstream EffPer value, kept for reference.
	// The authoritative Efficiency is always recomputed from Production/Target.
	ReportedEfficiency float64 `json:"reported_efficiency"`

	UsedMin    float64 `json:"used_min"`
	SAM        float64 `json:"sam"`
	Supervisor string  `json:"supervisor_name,omitempty"`
	Phone      string  `json:"phone_number,omitempty"`
	RedFlag    bool    `json:"is_red_flag"`
}

// Ordered alias tables per canonical field. Precedence is the slice order:
// snake_case first, then the SQL Server column names.
var (
	aliasUnit       = []string{"unit_code", "UnitCode", "Unit"}
	aliasFloor      = []string{"floor_name", "FloorName", "Floor"}
	aliasLine       = []string{"line_name", "LineName", "Line"}
	aliasStyle      = []string{"style_no", "StyleNo", "Style"}
	aliasPart       = []string{"part_name", "PartName", "Part"}
	aliasOperSeq    = []string{"new_oper_seq", "NewOperSeq", "operation", "Operation"}
	aliasOperName   = []string{"operation", "Operation", "oper_name"}
	aliasDevice     = []string{"device_id", "DeviceID", "Device"}
	aliasEmpCode    = []string{"emp_code", "EmpCode"}
	aliasEmpName    = []string{"emp_name", "EmpName"}
	aliasProduction = []string{"production", "ProdnPcs", "prodn_pcs"}
	aliasTarget     = []string{"target", "Eff100", "eff100"}
	aliasEfficiency = []string{"efficiency", "EffPer", "eff_per"}
	aliasUsedMin    = []string{"used_min", "UsedMin"}
	aliasSAM        = []string{"sam", "SAM"}
	aliasSupervisor = []string{"supervisor_name", "SupervisorName"}
	aliasPhone      = []string{"phone_number", "PhoneNumber"}
	aliasRedFlag    = []string{"is_red_flag", "IsRedFlag"}
)

// Normalize maps a raw record onto a canonical EmployeeRecord. It is a pure
// function and never fails: every field degrades to a defined default.
func Normalize(raw RawRecord) EmployeeRecord {
	production := firstInt(raw, aliasProduction)
	if production < 0 {
		production = 0
	}
	target := firstInt(raw, aliasTarget)
	if target < 0 {
		target = 0
	}

	return EmployeeRecord{
		EmpCode:            firstString(raw, aliasEmpCode, DefaultEmpCode),
		EmpName:            firstString(raw, aliasEmpName, "Unknown"),
		Unit:               firstString(raw, aliasUnit, DefaultUnit),
		Floor:              firstString(raw, aliasFloor, DefaultFloor),
		Line:               firstString(raw, aliasLine, DefaultLine),
		Style:              firstString(raw, aliasStyle, DefaultStyle),
		Part:               firstString(raw, aliasPart, DefaultPart),
		Operation:          firstString(raw, aliasOperSeq, DefaultOperation),
		Device:             firstString(raw, aliasDevice, DefaultDevice),
		OperationName:      firstString(raw, aliasOperName, ""),
		Production:         production,
		Target:             target,
		Efficiency:         classification.Efficiency(production, target),
		ReportedEfficiency: firstFloat(raw, aliasEfficiency),
		UsedMin:            firstFloat(raw, aliasUsedMin),
		SAM:                firstFloat(raw, aliasSAM),
		Supervisor:         firstString(raw, aliasSupervisor, ""),
		Phone:              firstString(raw, aliasPhone, ""),
		RedFlag:            firstBool(raw, aliasRedFlag),
	}
}

// NormalizeAll maps a raw snapshot in input order.
func NormalizeAll(raws []RawRecord) []EmployeeRecord {
	records := make([]EmployeeRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Normalize(raw))
	}
	return records
}

// firstString returns the first alias resolving to a non-empty,
// non-whitespace string. Numeric values are accepted and formatted, since
// some upstream exports ship identifiers as numbers.
func firstString(raw RawRecord, aliases []string, fallback string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case json.Number:
			if s.String() != "" {
				return s.String()
			}
		case float64:
			return formatNumber(s)
		case int:
			return strconv.Itoa(s)
		case int64:
			return strconv.FormatInt(s, 10)
		}
	}
	return fallback
}

// firstInt returns the first alias with a defined numeric value, truncated
// to an integer. Numeric strings are parsed; anything else is skipped.
func firstInt(raw RawRecord, aliases []string) int {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i)
			}
			if f, err := n.Float64(); err == nil {
				return int(f)
			}
		case string:
			trimmed := strings.TrimSpace(n)
			if trimmed == "" {
				continue
			}
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return int(f)
			}
		}
	}
	return 0
}

// firstFloat is firstInt's float counterpart.
func firstFloat(raw RawRecord, aliases []string) float64 {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f
			}
		case string:
			trimmed := strings.TrimSpace(n)
			if trimmed == "" {
				continue
			}
			if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// firstBool accepts bools, nonzero numbers and the usual string spellings.
func firstBool(raw RawRecord, aliases []string) bool {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case float64:
			return b != 0
		case int:
			return b != 0
		case int64:
			return b != 0
		case string:
			trimmed := strings.TrimSpace(strings.ToLower(b))
			if trimmed == "" {
				continue
			}
			return trimmed == "1" || trimmed == "true" || trimmed == "yes" || trimmed == "y"
		}
	}
	return false
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
