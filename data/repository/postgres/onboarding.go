package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/dealflow-tools/onboarding_bot/data/repository"
	"github.com/dealflow-tools/onboarding_bot/internal/model/dbModel"
	"github.com/dealflow-tools/onboarding_bot/utils"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
)

func (r *Postgres) InsertOperator(ctx context.Context, chatID int64) (operatorID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO operators(chat_id) VALUES($1) RETURNING operator_id`

	slog.Debug("InsertOperator start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertOperator failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertOperator completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, chatID).Scan(&operatorID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return 0, repository.ErrAlreadyExists
			}
		}
		return 0, err
	}

	return operatorID, nil
}

func (r *Postgres) GetOperatorID(ctx context.Context, chatID int64) (operatorID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT operator_id FROM operators WHERE chat_id = $1`

	slog.Debug("GetOperatorID start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetOperatorID failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetOperatorID completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, chatID).Scan(&operatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	return operatorID, nil
}

func (r *Postgres) InsertOnboarding(ctx context.Context, rec dbModel.OnboardingRecord) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO onboardings(operator_id, deal_id, deal_title, investor_id, profile_id, category, investment_value, number_of_securities)
		VALUES(:operator_id, :deal_id, :deal_title, :investor_id, :profile_id, :category, :investment_value, :number_of_securities)`

	slog.Debug("InsertOnboarding start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("InsertOnboarding failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("InsertOnboarding completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).NamedExecContext(ctx, query, rec)
	if err != nil {
		return err
	}

	return nil
}

func (r *Postgres) GetOnboardings(ctx context.Context, operatorID int64, limit int) (recs []dbModel.OnboardingRecord, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT id, operator_id, deal_id, deal_title, investor_id, profile_id, category, investment_value, number_of_securities, dt_create
		FROM onboardings WHERE operator_id = $1 ORDER BY dt_create DESC LIMIT $2`

	slog.Debug("GetOnboardings start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetOnboardings failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetOnboardings completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &recs, query, operatorID, limit)
	if err != nil {
		return nil, err
	}

	return recs, nil
}
