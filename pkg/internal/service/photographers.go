package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ctxPkg "github.com/yeisme/photovault/pkg/context"
	"github.com/yeisme/photovault/pkg/internal/model"
	"github.com/yeisme/photovault/pkg/internal/storage/db"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// PhotographerService 负责摄影师账户的建档与查询.
type PhotographerService struct {
	dbc *db.Client
}

// NewPhotographerService 创建并返回一个新的 PhotographerService 实例.
func NewPhotographerService(c context.Context) *PhotographerService {
	svc := &PhotographerService{
		dbc: ctxPkg.GetDBClient(c),
	}

	if svc.dbc == nil {
		nlog.Logger().Warn().Msg("DB client not initialized, PhotographerService features limited")
	}

	return svc
}

// Ensure 按上游身份幂等建档：不存在则创建，存在则返回现有记录.
// 重复调用不产生重复账户，展示名有变化时就地更新.
func (s *PhotographerService) Ensure(ctx context.Context, externalID, displayName string) (*model.Photographer, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("externalID is required")
	}

	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	dbx := s.dbc.GetDB().WithContext(ctx)

	p := model.Photographer{
		ExternalID:  externalID,
		Username:    usernameFromExternalID(externalID),
		DisplayName: displayName,
	}

	// upsert：以 external_id 为冲突键，单条 SQL 内完成幂等建档
	err := dbx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
	}).Create(&p).Error
	if err != nil {
		return nil, fmt.Errorf("ensure photographer: %w", err)
	}

	// upsert 命中更新分支时部分驱动不回填主键，重查一次
	if p.ID == 0 {
		if err := dbx.Where("external_id = ?", externalID).First(&p).Error; err != nil {
			return nil, fmt.Errorf("load photographer: %w", err)
		}
	}

	return &p, nil
}

// GetByExternalID 按上游身份标识查询摄影师.
func (s *PhotographerService) GetByExternalID(ctx context.Context, externalID string) (*model.Photographer, error) {
	if s.dbc == nil || s.dbc.GetDB() == nil {
		return nil, errors.New("db not initialized")
	}

	var p model.Photographer
	if err := s.dbc.GetDB().WithContext(ctx).
		Where("external_id = ?", externalID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &p, nil
}

// usernameFromExternalID 从身份标识派生用户名：保留完整标识做字符归一，
// 避免不同域下同名邮箱撞到唯一索引.
func usernameFromExternalID(externalID string) string {
	name := strings.ToLower(externalID)
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, name)

	return strings.Trim(name, "-")
}
