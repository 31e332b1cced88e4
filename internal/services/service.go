package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"gymcore-backend-go/internal/cache"
	"gymcore-backend-go/internal/db"
	"gymcore-backend-go/internal/nutrition"
	"gymcore-backend-go/internal/observability"
	"gymcore-backend-go/internal/points"
	"gymcore-backend-go/internal/policy"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PointsListener is told about balance changes after they commit.
type PointsListener interface {
	PointsChanged(ctx context.Context, changes []points.Change)
}

// Service is the entity store access layer. Every read is narrowed by the
// principal's scope and every write is checked against the policy table.
type Service struct {
	DB        *sqlx.DB
	Policy    *policy.Evaluator
	Engine    *points.Engine
	Completer *nutrition.Completer
	Cache     *cache.Leaderboard
	Listeners []PointsListener
	Log       *zap.Logger
	Now       func() time.Time
}

type Options struct {
	ThresholdPercent int
	Leaderboard      *cache.Leaderboard
	Listeners        []PointsListener
}

func New(database *sqlx.DB, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	engine := points.NewEngine(points.PostgresLedger{}, log)
	return &Service{
		DB:        database,
		Policy:    policy.NewEvaluator(policy.DefaultTable()),
		Engine:    engine,
		Completer: nutrition.NewCompleter(engine, opts.ThresholdPercent, log),
		Cache:     opts.Leaderboard,
		Listeners: opts.Listeners,
		Log:       log,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *Service) today() time.Time {
	n := s.now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return db.WithTx(ctx, s.DB, fn)
}

func (s *Service) authorize(p policy.Principal, kind policy.Kind, action policy.Action, target policy.Target) error {
	return denied(s.Policy.Authorize(p, kind, action, &target))
}

// publish reports committed balance changes. Listener failures are theirs
// to log; the changes are already durable.
func (s *Service) publish(ctx context.Context, changes ...points.Change) {
	if len(changes) == 0 {
		return
	}
	for _, c := range changes {
		observability.RecordPointAdjustment(string(c.Source), c.Delta)
		s.Log.Info("points_adjusted",
			zap.String("user_id", c.UserID),
			zap.Int("delta", c.Delta),
			zap.Int("balance", c.Balance),
			zap.String("source", string(c.Source)),
		)
	}
	s.Cache.PointsChanged(ctx, changes)
	for _, l := range s.Listeners {
		l.PointsChanged(ctx, changes)
	}
}

func notFound(kind policy.Kind) error {
	name := strings.ReplaceAll(string(kind), "_", " ")
	return ErrNotFound(strings.ToUpper(name[:1]) + name[1:] + " not found")
}

// scopedSelect renders "SELECT t.* FROM <kind> t" narrowed to p's scope and
// extra, rebound for the driver.
func (s *Service) scopedSelect(p policy.Principal, kind policy.Kind, extra policy.Predicate, tail string) (string, []any) {
	spec := policy.Specs[kind]
	pred := policy.Scope(p, kind).And(extra)
	query := "SELECT t.* FROM " + spec.Table + " " + policy.RootAlias + "\n" + pred.JoinSQL() + pred.WhereSQL() + tail
	return s.DB.Rebind(query), pred.Args
}

func listScoped[T any](ctx context.Context, s *Service, p policy.Principal, kind policy.Kind, extra policy.Predicate, orderBy string) ([]T, error) {
	query, args := s.scopedSelect(p, kind, extra, "ORDER BY "+orderBy)
	items := []T{}
	if err := s.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, WrapError(err, "list "+string(kind))
	}
	return items, nil
}

// getScoped reads one record visible to p. Records outside p's scope are
// reported exactly like missing ones.
func getScoped[T any](ctx context.Context, s *Service, p policy.Principal, kind policy.Kind, id string) (*T, error) {
	query, args := s.scopedSelect(p, kind, policy.Where(policy.RootAlias+".id = ?", id), "")
	var item T
	err := s.DB.GetContext(ctx, &item, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(kind)
	}
	if err != nil {
		return nil, WrapError(err, "get "+string(kind))
	}
	return &item, nil
}

func (s *Service) visible(ctx context.Context, p policy.Principal, kind policy.Kind, id string) error {
	query, args := s.scopedSelect(p, kind, policy.Where(policy.RootAlias+".id = ?", id), "")
	query = "SELECT EXISTS(" + query + ")"
	var ok bool
	if err := s.DB.GetContext(ctx, &ok, query, args...); err != nil {
		return WrapError(err, "check "+string(kind))
	}
	if !ok {
		return notFound(kind)
	}
	return nil
}

// loadTarget reads the policy attributes of a stored record, ignoring scope.
func (s *Service) loadTarget(ctx context.Context, q sqlx.QueryerContext, kind policy.Kind, id string) (policy.Target, error) {
	query, args, ok := policy.TargetSQL(kind)
	if !ok {
		return policy.Target{}, notFound(kind)
	}
	var row struct {
		GymID   *string `db:"gym_id"`
		OwnerID *string `db:"owner_id"`
		Visible bool    `db:"visible"`
	}
	err := sqlx.GetContext(ctx, q, &row, s.DB.Rebind(query), append(args, id)...)
	if errors.Is(err, sql.ErrNoRows) {
		return policy.Target{}, notFound(kind)
	}
	if err != nil {
		return policy.Target{}, WrapError(err, "load "+string(kind))
	}
	t := policy.Target{GymID: row.GymID, Visible: row.Visible}
	if row.OwnerID != nil {
		t.OwnerID = *row.OwnerID
	}
	return t, nil
}

type userRef struct {
	ID    string  `db:"id"`
	GymID *string `db:"gym_id"`
}

func (s *Service) loadUser(ctx context.Context, id string) (userRef, error) {
	var u userRef
	err := s.DB.GetContext(ctx, &u, `SELECT id, gym_id::text AS gym_id FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return userRef{}, ErrNotFound("User not found")
	}
	if err != nil {
		return userRef{}, WrapError(err, "load user")
	}
	return u, nil
}

// member resolves the user an action is performed for. Only staff of the
// user's gym and super admins may act for someone else.
func (s *Service) member(ctx context.Context, p policy.Principal, userID string) (userRef, error) {
	if userID == "" || userID == p.ID {
		return userRef{ID: p.ID, GymID: p.GymID}, nil
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return userRef{}, err
	}
	if p.IsSuperAdmin() {
		return u, nil
	}
	if !p.Role.IsStaff() {
		return userRef{}, ErrForbidden("cannot act on behalf of another user")
	}
	if !p.InGym(u.GymID) {
		return userRef{}, ErrForbidden("user belongs to another gym")
	}
	return u, nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// storeError maps constraint violations to caller errors.
func storeError(err error, msg string) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return ErrConflict("A record with the same values already exists", nil)
	case pgForeignKeyViolation:
		return ErrConflict("Record is referenced by or references missing data", nil)
	}
	return WrapError(err, msg)
}

func notFoundOr(err error, kind policy.Kind, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind)
	}
	return WrapError(err, msg)
}
