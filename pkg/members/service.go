package members

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Bervaline/Library-Management-System/pkg/errcodes"
	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveMemberOptions struct {
	ID     *int
	UserID *int
	Email  *string
}

type ListMembersOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateMemberOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateMember(ctx context.Context, member *models.Member) error {
	now := time.Now()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = member.CreatedAt
	if member.DateJoined.IsZero() {
		member.DateJoined = now
	}

	exists, err := svc.db.
		NewSelect().
		Model((*models.Member)(nil)).
		Where("email = ? COLLATE NOCASE", member.Email).
		Exists(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if exists {
		return errcodes.ValidationError("A member with this email already exists")
	}

	_, err = svc.db.
		NewInsert().
		Model(member).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) RetrieveMember(ctx context.Context, opts RetrieveMemberOptions) (*models.Member, error) {
	member := &models.Member{}

	q := svc.db.
		NewSelect().
		Model(member)

	if opts.ID != nil {
		q = q.Where("m.id = ?", *opts.ID)
	}
	if opts.UserID != nil {
		q = q.Where("m.user_id = ?", *opts.UserID)
	}
	if opts.Email != nil {
		q = q.Where("m.email = ? COLLATE NOCASE", *opts.Email)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Member")
		}
		return nil, errors.WithStack(err)
	}

	return member, nil
}

func (svc *Service) ListMembers(ctx context.Context, opts ListMembersOptions) ([]*models.Member, error) {
	m, _, err := svc.listMembersWithTotal(ctx, opts)
	return m, errors.WithStack(err)
}

func (svc *Service) ListMembersWithTotal(ctx context.Context, opts ListMembersOptions) ([]*models.Member, int, error) {
	opts.includeTotal = true
	return svc.listMembersWithTotal(ctx, opts)
}

func (svc *Service) listMembersWithTotal(ctx context.Context, opts ListMembersOptions) ([]*models.Member, int, error) {
	members := []*models.Member{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&members).
		Order("m.created_at ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + *opts.Search + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.
				WhereOr("m.full_name LIKE ?", search).
				WhereOr("m.email LIKE ?", search).
				WhereOr("m.phone LIKE ?", search)
		})
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return members, total, nil
}

func (svc *Service) UpdateMember(ctx context.Context, member *models.Member, opts UpdateMemberOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	// An email change must not collide with another member.
	for _, col := range opts.Columns {
		if col != "email" {
			continue
		}
		exists, err := svc.db.
			NewSelect().
			Model((*models.Member)(nil)).
			Where("email = ? COLLATE NOCASE", member.Email).
			Where("id != ?", member.ID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if exists {
			return errcodes.ValidationError("A member with this email already exists")
		}
	}

	// Update updated_at.
	now := time.Now()
	member.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(member).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Member")
		}
		return errors.WithStack(err)
	}

	return nil
}

// DeleteMember removes the member along with their transactions and requests
// through the cascading foreign keys.
func (svc *Service) DeleteMember(ctx context.Context, id int) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.Member)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Member")
	}

	return nil
}

// GetOrCreateForUser returns the member profile linked to the user, creating
// one from the identity's attributes when none exists yet. Existing users
// (staff created before the bridge, for example) get a deterministic
// backfill: the member email falls back to <username>@library.local, and on
// collision to <username>_<user id>@library.local.
func (svc *Service) GetOrCreateForUser(ctx context.Context, user *models.User) (*models.Member, error) {
	member, err := svc.RetrieveMember(ctx, RetrieveMemberOptions{UserID: &user.ID})
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, errcodes.NotFound("Member")) {
		return nil, errors.WithStack(err)
	}

	fullName := user.Username
	email := fmt.Sprintf("%s@library.local", strings.ToLower(user.Username))
	if user.Email != nil && *user.Email != "" {
		email = *user.Email
	}

	exists, err := svc.db.
		NewSelect().
		Model((*models.Member)(nil)).
		Where("email = ? COLLATE NOCASE", email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		email = fmt.Sprintf("%s_%d@library.local", strings.ToLower(user.Username), user.ID)
	}

	now := time.Now()
	member = &models.Member{
		UserID:     &user.ID,
		FullName:   fullName,
		Email:      email,
		Phone:      "Not provided",
		Address:    "",
		DateJoined: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = svc.db.
		NewInsert().
		Model(member).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return member, nil
}
