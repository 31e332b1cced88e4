package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gymcore-backend-go/internal/models"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Record is a catalogue row with the shared id and timestamp columns.
type Record interface {
	GetID() string
	SetID(id string)
	Touch(now time.Time)
	Stamp(now time.Time)
}

type tenanted interface {
	GetGymID() *string
	SetGymID(gymID *string)
}

type child interface {
	ParentID() string
}

type publishable interface {
	Published() bool
}

type defaulted interface {
	ApplyDefaults()
}

// Ref is a record another record points at; the principal must be able to
// read it.
type Ref[P any] struct {
	Kind policy.Kind
	ID   func(P) string
}

// Catalogue implements list/get/create/update/delete for one tenant-scoped
// record type.
type Catalogue[T any, P interface {
	*T
	Record
}] struct {
	Kind policy.Kind
	// Columns are the writable columns besides id and the timestamps.
	Columns []string
	OrderBy string
	Refs    []Ref[P]
	// Prepare fills server-owned fields on create.
	Prepare func(p policy.Principal, rec P)
	// Transition validates an update against the stored record and may fill
	// fields the payload left empty.
	Transition func(before, after P) error
	// AfterUpdate runs in the update transaction.
	AfterUpdate func(ctx context.Context, s *Service, tx *sqlx.Tx, before, after P) ([]points.Change, error)
	// BeforeDelete runs in the delete transaction and may return work to do
	// once the row is gone.
	BeforeDelete func(ctx context.Context, s *Service, tx *sqlx.Tx, rec P) (func() ([]points.Change, error), error)
}

func (c *Catalogue[T, P]) table() string {
	return policy.Specs[c.Kind].Table
}

func (c *Catalogue[T, P]) List(ctx context.Context, s *Service, p policy.Principal) ([]T, error) {
	return listScoped[T](ctx, s, p, c.Kind, policy.MatchAll(), c.OrderBy)
}

func (c *Catalogue[T, P]) Get(ctx context.Context, s *Service, p policy.Principal, id string) (P, error) {
	return getScoped[T](ctx, s, p, c.Kind, id)
}

func (c *Catalogue[T, P]) load(ctx context.Context, q sqlx.QueryerContext, id string) (P, error) {
	var item T
	err := sqlx.GetContext(ctx, q, &item, `SELECT * FROM `+c.table()+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(c.Kind)
	}
	if err != nil {
		return nil, WrapError(err, "load "+string(c.Kind))
	}
	return &item, nil
}

// target computes the policy attributes rec would be stored with. Root
// records of non-super principals are pinned to pinGym; child records take
// their gym from the parent.
func (c *Catalogue[T, P]) target(ctx context.Context, s *Service, p policy.Principal, rec P, pinGym *string) (policy.Target, error) {
	spec := policy.Specs[c.Kind]
	t := policy.Target{Visible: true}
	if pub, ok := any(rec).(publishable); ok {
		t.Visible = pub.Published()
	}
	switch {
	case len(spec.Tenant.Hops) > 0:
		ch, ok := any(rec).(child)
		if !ok {
			return t, WrapError(errors.New("missing parent"), string(c.Kind))
		}
		query, _ := spec.Tenant.FromFirstHop()
		var gym *string
		err := s.DB.GetContext(ctx, &gym, s.DB.Rebind(query), ch.ParentID())
		if errors.Is(err, sql.ErrNoRows) {
			return t, ErrNotFound("Parent record not found")
		}
		if err != nil {
			return t, WrapError(err, "resolve parent gym")
		}
		t.GymID = gym
	case spec.Tenant.Column == "gym_id":
		if tr, ok := any(rec).(tenanted); ok {
			if !p.IsSuperAdmin() {
				tr.SetGymID(copyPtr(pinGym))
			}
			t.GymID = tr.GetGymID()
		}
	case spec.Tenant.Column == "id":
		if tr, ok := any(rec).(tenanted); ok {
			t.GymID = tr.GetGymID()
		}
	}
	return t, nil
}

func (c *Catalogue[T, P]) checkRefs(ctx context.Context, s *Service, p policy.Principal, rec P) error {
	for _, ref := range c.Refs {
		id := ref.ID(rec)
		if id == "" {
			continue
		}
		if err := s.visible(ctx, p, ref.Kind, id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalogue[T, P]) Create(ctx context.Context, s *Service, p policy.Principal, rec P) (P, error) {
	if c.Prepare != nil {
		c.Prepare(p, rec)
	}
	if d, ok := any(rec).(defaulted); ok {
		d.ApplyDefaults()
	}
	if err := Validate(rec); err != nil {
		return nil, err
	}
	if err := c.checkRefs(ctx, s, p, rec); err != nil {
		return nil, err
	}
	target, err := c.target(ctx, s, p, rec, p.GymID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, c.Kind, policy.ActionCreate, target); err != nil {
		return nil, err
	}
	rec.SetID(uuid.NewString())
	rec.Stamp(s.now())
	if _, err := s.DB.NamedExecContext(ctx, c.insertSQL(), rec); err != nil {
		return nil, storeError(err, "create "+string(c.Kind))
	}
	return c.load(ctx, s.DB, rec.GetID())
}

func (c *Catalogue[T, P]) Update(ctx context.Context, s *Service, p policy.Principal, id string, rec P) (P, error) {
	before, err := c.load(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	current, err := s.loadTarget(ctx, s.DB, c.Kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, c.Kind, policy.ActionUpdate, current); err != nil {
		return nil, err
	}
	if c.Transition != nil {
		if err := c.Transition(before, rec); err != nil {
			return nil, err
		}
	}
	if d, ok := any(rec).(defaulted); ok {
		d.ApplyDefaults()
	}
	if err := Validate(rec); err != nil {
		return nil, err
	}
	if err := c.checkRefs(ctx, s, p, rec); err != nil {
		return nil, err
	}
	rec.SetID(id)
	// A non-super update never moves a record to another tenant.
	next, err := c.target(ctx, s, p, rec, current.GymID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(p, c.Kind, policy.ActionUpdate, next); err != nil {
		return nil, err
	}
	rec.Touch(s.now())

	var changes []points.Change
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, c.updateSQL(), rec); err != nil {
			return storeError(err, "update "+string(c.Kind))
		}
		if c.AfterUpdate != nil {
			changes, err = c.AfterUpdate(ctx, s, tx, before, rec)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, changes...)
	return c.load(ctx, s.DB, id)
}

func (c *Catalogue[T, P]) Delete(ctx context.Context, s *Service, p policy.Principal, id string) error {
	rec, err := c.load(ctx, s.DB, id)
	if err != nil {
		return err
	}
	target, err := s.loadTarget(ctx, s.DB, c.Kind, id)
	if err != nil {
		return err
	}
	if err := s.authorize(p, c.Kind, policy.ActionDelete, target); err != nil {
		return err
	}
	var changes []points.Change
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		var after func() ([]points.Change, error)
		if c.BeforeDelete != nil {
			if after, err = c.BeforeDelete(ctx, s, tx, rec); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+c.table()+` WHERE id = $1`, id); err != nil {
			return storeError(err, "delete "+string(c.Kind))
		}
		if after != nil {
			changes, err = after()
		}
		return err
	})
	if err != nil {
		return err
	}
	s.publish(ctx, changes...)
	return nil
}

func (c *Catalogue[T, P]) insertSQL() string {
	cols := append([]string{"id", "created_at", "updated_at"}, c.Columns...)
	return `INSERT INTO ` + c.table() + ` (` + strings.Join(cols, ", ") + `) VALUES (:` + strings.Join(cols, ", :") + `)`
}

func (c *Catalogue[T, P]) updateSQL() string {
	sets := make([]string, 0, len(c.Columns)+1)
	for _, col := range c.Columns {
		sets = append(sets, col+" = :"+col)
	}
	sets = append(sets, "updated_at = :updated_at")
	return `UPDATE ` + c.table() + ` SET ` + strings.Join(sets, ", ") + ` WHERE id = :id`
}

// transition keeps the stored status when the payload has none and
// otherwise checks the move against table.
func transition[S ~string](table models.Transitions[S], before string, after *string) error {
	if *after == "" {
		*after = before
		return nil
	}
	if err := table.Check(S(before), S(*after)); err != nil {
		var terr *models.TransitionError
		if errors.As(err, &terr) && terr.Unknown {
			return ErrValidation(map[string]string{"status": err.Error()})
		}
		return ErrConflict(err.Error(), map[string]string{"from": before, "to": *after})
	}
	return nil
}

func copyPtr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
