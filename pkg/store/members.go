package store

import (
	"context"

	"libraryapp/pkg/models"
)

func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	return translate("create member", s.conn(ctx).Create(member).Error)
}

func (s *Store) GetMember(ctx context.Context, memberUid string) (models.Member, error) {
	return first[models.Member](s.conn(ctx), "get member", "member_uid = ?", memberUid)
}

func (s *Store) FindMemberByMembershipID(ctx context.Context, membershipID string) (*models.Member, error) {
	return find[models.Member](s.conn(ctx), "find member by membership id", "membership_id = ?", membershipID)
}

func (s *Store) FindMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	return find[models.Member](s.conn(ctx), "find member by email", "email = ?", email)
}

func (s *Store) FindMemberByExternalUser(ctx context.Context, externalUser string) (*models.Member, error) {
	return find[models.Member](s.conn(ctx), "find member by external user", "external_user = ?", externalUser)
}

func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := s.conn(ctx).Order("name ASC").Order("id ASC").Find(&members).Error; err != nil {
		return nil, translate("list members", err)
	}
	return members, nil
}

func (s *Store) SaveMember(ctx context.Context, member *models.Member) error {
	return translate("save member", s.conn(ctx).Save(member).Error)
}

func (s *Store) DeleteMember(ctx context.Context, memberUid string) error {
	res := s.conn(ctx).Where("member_uid = ?", memberUid).Delete(&models.Member{})
	if res.Error != nil {
		return translate("delete member", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
