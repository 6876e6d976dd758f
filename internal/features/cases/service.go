// Package cases, service.go: открытие кейса от блокировки до коммита.
package cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/common"
	"serotonyl.ru/casebot/internal/config"
	"serotonyl.ru/casebot/internal/db/postgres"
	"serotonyl.ru/casebot/internal/features/catalog"
	"serotonyl.ru/casebot/internal/features/economy"
	"serotonyl.ru/casebot/internal/metrics"
)

// Service открывает кейсы.
type Service struct {
	store       Store
	random      RandomSource
	adminAudit  AdminAuditSink     // может быть nil
	invalidator ProfileInvalidator // может быть nil
	cfg         *config.Config
	now         func() time.Time
}

// NewService создаёт сервис кейсов.
func NewService(store Store, random RandomSource, adminAudit AdminAuditSink, invalidator ProfileInvalidator, cfg *config.Config) *Service {
	return &Service{
		store:       store,
		random:      random,
		adminAudit:  adminAudit,
		invalidator: invalidator,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// OpenCase открывает один экземпляр кейса пользователя.
//
// Всё от блокировки пользователя до записи аудита: одна транзакция:
//  1. блокировка строки пользователя
//  2. поиск и условное удаление экземпляра (не удалилось → ErrCaseNotOwned, без повтора)
//  3. проверка таблицы шансов
//  4. сид, бросок, выбор предмета
//  5. предмет в инвентарь или компенсация за дубликат
//  6. запись броска
//
// После коммита: запись в журнал админки и сброс кэша профиля, обе без влияния на результат.
func (s *Service) OpenCase(ctx context.Context, userID, caseID int64) (*RollOutcome, error) {
	if !s.cfg.FeatureCasesEnabled {
		return nil, common.ErrCasesDisabled
	}

	start := time.Now()
	stage := StagePending
	var rec *RollRecord

	err := s.store.InTx(ctx, func(tx Tx) error {
		user, err := tx.Users().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		c, err := tx.Catalog().GetCase(ctx, caseID)
		if err != nil {
			return err
		}

		instance, err := tx.Inventory().FindConsumableInstance(ctx, userID, caseID)
		if err != nil {
			return err
		}
		deleted, err := tx.Inventory().DeleteInstance(ctx, instance.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("экземпляр %d уже израсходован: %w", instance.ID, common.ErrCaseNotOwned)
		}
		stage = StageInstanceConsumed

		contents, err := tx.Catalog().GetContents(ctx, caseID)
		if err != nil {
			return err
		}
		if err := catalog.ValidateContents(contents); err != nil {
			return err
		}
		stage = StageContentsValidated

		seed, err := s.random.NewSeed()
		if err != nil {
			return err
		}
		roll, err := s.random.RollValue()
		if err != nil {
			return err
		}
		if roll < 0 || roll >= RollCeiling {
			return fmt.Errorf("бросок %d вне диапазона [0, %d)", roll, RollCeiling)
		}

		weighted := Weigh(contents)
		sel, err := Select(weighted, roll)
		if err != nil {
			return err
		}
		if sel.Fallback {
			metrics.SelectionFallbacks.Inc()
			log.WithFields(log.Fields{
				"case_id":      caseID,
				"roll":         roll,
				"total_weight": sel.TotalWeight,
			}).Warn("Веса таблицы не покрыли бросок, выбран последний предмет")
		}
		won := contents[sel.Index]
		stage = StageItemSelected

		owned, err := tx.Inventory().HasItem(ctx, userID, won.Item.ID)
		if err != nil {
			return err
		}

		creditsBefore := user.Balance
		var comp Compensation
		if owned {
			comp = Compensate(won.Item.Rarity)
			user.Balance += comp.Credits
			user.TotalEarned += comp.Credits
			user.XP += comp.XP
			if err := tx.Users().Save(ctx, user); err != nil {
				return err
			}
			if err := tx.Users().LogTransaction(ctx, economy.Transaction{
				ToUserID:        &userID,
				Amount:          comp.Credits,
				TransactionType: economy.TxTypeCaseCompensation,
				Description:     fmt.Sprintf("Дубликат «%s» из кейса «%s»", won.Item.Name, c.Name),
			}); err != nil {
				return err
			}
		} else {
			if err := tx.Inventory().AddItem(ctx, userID, won.Item.ID); err != nil {
				return err
			}
		}
		stage = StageResolved

		rec = &RollRecord{
			RollUID:          uuid.New(),
			UserID:           userID,
			CaseID:           c.ID,
			CaseName:         c.Name,
			WonItemID:        won.Item.ID,
			WonItemName:      won.Item.Name,
			WonItemRarity:    won.Item.Rarity,
			RollValue:        roll,
			SeedHash:         SeedHash(seed),
			DropRate:         won.DropRate,
			TotalWeight:      sel.TotalWeight,
			ItemCount:        len(contents),
			AlreadyOwned:     owned,
			CreditsBefore:    creditsBefore,
			CreditsAfter:     user.Balance,
			CreditsAwarded:   comp.Credits,
			XPAwarded:        comp.XP,
			ContentsSnapshot: Snapshot(contents, weighted),
			StatisticalHash:  StatisticalHash(roll, won.DropRate, sel.TotalWeight),
			CreatedAt:        s.now(),
		}
		return tx.Audit().InsertRoll(ctx, rec)
	})
	if err != nil {
		reason := failureReason(err)
		metrics.CaseOpenFailures.WithLabelValues(reason).Inc()
		entry := log.WithFields(log.Fields{
			"user_id": userID,
			"case_id": caseID,
			"stage":   stage,
			"reason":  reason,
		}).WithError(err)
		if reason == "internal" || reason == "lock_timeout" {
			entry.Error("Открытие кейса откатилось")
		} else {
			entry.Info("Открытие кейса отклонено")
		}
		return nil, err
	}

	stage = StageCommitted
	metrics.CaseOpenDuration.Observe(time.Since(start).Seconds())
	if rec.AlreadyOwned {
		metrics.CasesOpened.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	} else {
		metrics.CasesOpened.WithLabelValues(metrics.OutcomeNewItem).Inc()
	}
	log.WithFields(log.Fields{
		"user_id":       userID,
		"case_id":       caseID,
		"roll_uid":      rec.RollUID,
		"item_id":       rec.WonItemID,
		"already_owned": rec.AlreadyOwned,
		"stage":         stage,
	}).Info("Кейс открыт")

	s.afterCommit(ctx, rec)
	return outcomeOf(rec), nil
}

// afterCommit: действия, которые не могут откатить бросок.
func (s *Service) afterCommit(ctx context.Context, rec *RollRecord) {
	if s.adminAudit != nil {
		details := fmt.Sprintf("roll=%s case=%d item=%d duplicate=%t",
			rec.RollUID, rec.CaseID, rec.WonItemID, rec.AlreadyOwned)
		if err := s.adminAudit.Record(ctx, rec.UserID, "case_opened", details); err != nil {
			log.WithError(err).WithField("roll_uid", rec.RollUID).Warn("Не удалось записать открытие в журнал админки")
		}
	}

	if s.invalidator != nil {
		userID := rec.UserID
		// Отмена запроса после коммита не должна отменять сброс кэша
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CaseInvalidateTimeout)
		go func() {
			defer cancel()
			if err := s.invalidator.Invalidate(ictx, userID); err != nil {
				log.WithError(err).WithField("user_id", userID).Warn("Не удалось сбросить кэш профиля")
			}
		}()
	}
}

func outcomeOf(rec *RollRecord) *RollOutcome {
	out := &RollOutcome{
		RollUID:  rec.RollUID,
		CaseID:   rec.CaseID,
		CaseName: rec.CaseName,
		WonItem: PublicItem{
			ID:     rec.WonItemID,
			Name:   rec.WonItemName,
			Rarity: rec.WonItemRarity,
		},
		RollValue:    rec.RollValue,
		RolledAt:     rec.CreatedAt,
		AlreadyOwned: rec.AlreadyOwned,
	}
	if rec.AlreadyOwned {
		out.Compensation = &Compensation{Credits: rec.CreditsAwarded, XP: rec.XPAwarded}
	}
	return out
}

// failureReason: метка метрики для ошибки открытия.
func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrUserNotFound), errors.Is(err, common.ErrCaseNotFound):
		return "not_found"
	case errors.Is(err, common.ErrCaseNotOwned):
		return "not_owned"
	case errors.Is(err, common.ErrEmptyCase), errors.Is(err, common.ErrInvalidCaseContents):
		return "invalid_contents"
	case postgres.IsLockTimeout(err):
		return "lock_timeout"
	default:
		return "internal"
	}
}

// VerifyRoll пересчитывает выбор по сохранённой записи броска.
func (s *Service) VerifyRoll(ctx context.Context, rollUID uuid.UUID) (*Verification, error) {
	rec, err := s.store.GetRoll(ctx, rollUID)
	if err != nil {
		return nil, err
	}
	v := Verify(rec)
	if !v.OK() {
		log.WithFields(log.Fields{
			"roll_uid":      rollUID,
			"item_matches":  v.ItemMatches,
			"hash_matches":  v.HashMatches,
			"weights_match": v.WeightsMatch,
		}).Warn("Запись броска не прошла проверку")
	}
	return v, nil
}

// History возвращает последние открытия пользователя.
func (s *Service) History(ctx context.Context, userID int64) ([]RollRecord, error) {
	return s.store.History(ctx, userID, s.cfg.CaseHistoryLimit)
}
