// Package postgresadapter implements ports.Store over gorm + the pgx
// driver.
package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"ruleengine/contexts/rule-engine/domain/entities"
	domainerrors "ruleengine/contexts/rule-engine/domain/errors"
	"ruleengine/contexts/rule-engine/ports"

	"gorm.io/gorm"
)

// ruleModel is the gorm row for a persisted rule. Column names mirror
// Personium's rule entity fields.
type ruleModel struct {
	CellID   string `gorm:"column:cell_id;primaryKey"`
	Name     string `gorm:"column:name;primaryKey"`
	External *bool  `gorm:"column:external"`
	Subject  string `gorm:"column:subject"`
	Type     string `gorm:"column:type"`
	Object   string `gorm:"column:object"`
	Info     string `gorm:"column:info"`
	Action   string `gorm:"column:action"`
	Service  string `gorm:"column:service"`
	BoxName  string `gorm:"column:box_name"`
}

func (ruleModel) TableName() string { return "rule_engine_rules" }

type boxModel struct {
	CellID string `gorm:"column:cell_id;primaryKey"`
	ID     string `gorm:"column:id"`
	Name   string `gorm:"column:name;primaryKey"`
	Schema string `gorm:"column:schema"`
}

func (boxModel) TableName() string { return "rule_engine_boxes" }

type cellModel struct {
	ID string `gorm:"column:id;primaryKey"`
}

func (cellModel) TableName() string { return "rule_engine_cells" }

// Repository implements ports.Store against Postgres.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) ListCells(ctx context.Context) ([]string, error) {
	var rows []cellModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, r.logError("rule_engine_repo_list_cells_failed", err)
	}
	cells := make([]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.ID)
	}
	return cells, nil
}

func (r *Repository) ListRules(ctx context.Context, cellID string) ([]ports.RuleRecord, error) {
	var rows []ruleModel
	err := r.db.WithContext(ctx).Where("cell_id = ?", cellID).Find(&rows).Error
	if err != nil {
		return nil, r.logError("rule_engine_repo_list_rules_failed", err, "cell_id", cellID)
	}
	records := make([]ports.RuleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// ReadRule reads the rule named by compoundKey's "Name" field. The full
// compound-key parse (including box linkage) is the caller's
// responsibility via domain/keycodec; this adapter only needs the final
// rule name to look up the row.
func (r *Repository) ReadRule(ctx context.Context, cellID string, compoundKey string) (ports.RuleRecord, error) {
	name := extractNameField(compoundKey)
	var row ruleModel
	err := r.db.WithContext(ctx).
		Where("cell_id = ? AND name = ?", cellID, name).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RuleRecord{}, domainerrors.ErrRuleNotFound
		}
		return ports.RuleRecord{}, r.logError("rule_engine_repo_read_rule_failed", err,
			"cell_id", cellID, "name", name)
	}
	return row.toRecord(), nil
}

func (r *Repository) FindBoxByName(ctx context.Context, cellID string, name string) (entities.Box, bool, error) {
	var row boxModel
	err := r.db.WithContext(ctx).
		Where("cell_id = ? AND name = ?", cellID, name).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Box{}, false, nil
		}
		return entities.Box{}, false, r.logError("rule_engine_repo_find_box_failed", err,
			"cell_id", cellID, "name", name)
	}
	return entities.Box{ID: row.ID, Name: row.Name, Schema: row.Schema}, true, nil
}

func (r *Repository) CellExists(ctx context.Context, cellID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&cellModel{}).Where("id = ?", cellID).Count(&count).Error
	if err != nil {
		return false, r.logError("rule_engine_repo_cell_exists_failed", err, "cell_id", cellID)
	}
	return count > 0, nil
}

func (m ruleModel) toRecord() ports.RuleRecord {
	return ports.RuleRecord{
		Name:     m.Name,
		External: m.External,
		Subject:  m.Subject,
		Type:     m.Type,
		Object:   m.Object,
		Info:     m.Info,
		Action:   m.Action,
		Service:  m.Service,
		BoxName:  m.BoxName,
	}
}

func extractNameField(compoundKey string) string {
	for _, part := range strings.Split(compoundKey, ",") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		if strings.TrimSpace(part[:eq]) != "Name" {
			continue
		}
		return strings.Trim(strings.TrimSpace(part[eq+1:]), "'")
	}
	return strings.Trim(compoundKey, "'")
}

func (r *Repository) logError(event string, err error, kv ...any) error {
	args := append([]any{"event", event, "module", "rule-engine", "layer", "adapter", "error", err.Error()}, kv...)
	r.logger.Error("rule engine postgres repository error", args...)
	return domainerrors.ErrTransientStore
}
