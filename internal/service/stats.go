package service

import (
	"context"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/storage"
)

// ReconcileStats folds up to batch finished matches into the players'
// victory, defeat and draw counters. Each match is counted exactly once.
// It returns how many matches were counted.
func (s *Service) ReconcileStats(ctx context.Context, batch int) (int, error) {
	matches, err := s.store.FindUncountedFinishedMatches(ctx, batch)
	if err != nil {
		return 0, err
	}
	counted := 0
	for _, candidate := range matches {
		if err := ctx.Err(); err != nil {
			return counted, err
		}
		done := false
		err := s.store.InTx(ctx, func(tx storage.Tx) error {
			m, err := tx.LockMatch(candidate.ID)
			if err != nil {
				return err
			}
			if m.StatsCounted || m.Status != game.MatchFinished {
				return nil
			}
			rounds, err := tx.ListRounds(m.ID)
			if err != nil {
				return err
			}
			owner, opponent := m.PlayerIDs()
			ownerWins, opponentWins := tally(rounds, owner, opponent)
			switch {
			case ownerWins > opponentWins:
				err = addResults(tx, owner, opponent)
			case opponentWins > ownerWins:
				err = addResults(tx, opponent, owner)
			default:
				if err = tx.AddUserResult(owner, 0, 0, 1); err == nil {
					err = tx.AddUserResult(opponent, 0, 0, 1)
				}
			}
			if err != nil {
				return err
			}
			m.StatsCounted = true
			if err := tx.SaveMatch(m); err != nil {
				return err
			}
			done = true
			return nil
		})
		if err != nil {
			logging.Error("stats reconciliation failed", err, logging.Fields{constants.LogFieldMatchID: candidate.ID})
			return counted, err
		}
		if done {
			counted++
		}
	}
	if counted > 0 {
		logging.Info("stats reconciled", logging.Fields{constants.LogFieldCount: counted})
	}
	return counted, nil
}

func tally(rounds []game.Round, owner, opponent uint) (ownerWins, opponentWins int) {
	for _, r := range rounds {
		if r.WinnerID == nil {
			continue
		}
		switch *r.WinnerID {
		case owner:
			ownerWins++
		case opponent:
			opponentWins++
		}
	}
	return ownerWins, opponentWins
}

func addResults(tx storage.Tx, winner, loser uint) error {
	if err := tx.AddUserResult(winner, 1, 0, 0); err != nil {
		return err
	}
	return tx.AddUserResult(loser, 0, 1, 0)
}
