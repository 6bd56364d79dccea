package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
)

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// notFound maps gorm's missing-row error to the domain sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

func roundsByTurn(db *gorm.DB) *gorm.DB { return db.Order("turn ASC") }

func cardsByPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (r *gormRepository) CreateMatch(ctx context.Context, m *game.Match) error {
	// the invitation, when present, is inserted with the match
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *gormRepository) GetMatchByID(ctx context.Context, id uint) (*game.Match, error) {
	var m game.Match
	err := r.db.WithContext(ctx).
		Preload("Invitation").
		Preload("Rounds", roundsByTurn).
		First(&m, id).Error
	if err != nil {
		return nil, notFound(err, game.ErrMatchNotFound)
	}
	return &m, nil
}

func (r *gormRepository) ListMatchesForUser(ctx context.Context, userID uint, status game.MatchStatus) ([]game.Match, error) {
	q := r.db.WithContext(ctx).Preload("Invitation").
		Where("owner_id = ? OR opponent_id = ?", userID, userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var matches []game.Match
	if err := q.Order("created_at desc").Order("id desc").Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *gormRepository) ListInvitedMatches(ctx context.Context, userID uint) ([]game.Match, error) {
	var matches []game.Match
	err := r.db.WithContext(ctx).Preload("Invitation").
		Joins("JOIN invitations ON invitations.match_id = matches.id AND invitations.deleted_at IS NULL").
		Where("invitations.user_id = ? AND invitations.resolved = ? AND matches.status = ?", userID, false, game.MatchPending).
		Order("matches.created_at desc").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *gormRepository) ListRounds(ctx context.Context, matchID uint) ([]game.Round, error) {
	return listRounds(r.db.WithContext(ctx), matchID)
}

func (r *gormRepository) CountRounds(ctx context.Context, matchID uint) (int, error) {
	return countRounds(r.db.WithContext(ctx), matchID)
}

func (r *gormRepository) FindRoundByTurn(ctx context.Context, matchID uint, turn int) (*game.Round, error) {
	return findRoundByTurn(r.db.WithContext(ctx), matchID, turn)
}

func (r *gormRepository) GetRoundByID(ctx context.Context, id uint) (*game.Round, error) {
	var round game.Round
	if err := r.db.WithContext(ctx).First(&round, id).Error; err != nil {
		return nil, notFound(err, game.ErrRoundNotFound)
	}
	return &round, nil
}

func (r *gormRepository) CreateDeck(ctx context.Context, d *game.Deck) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *gormRepository) GetDeckByID(ctx context.Context, id uint) (*game.Deck, error) {
	return getDeck(r.db.WithContext(ctx), id)
}

func (r *gormRepository) ListDecksByAuthor(ctx context.Context, authorID uint) ([]game.Deck, error) {
	var decks []game.Deck
	err := r.db.WithContext(ctx).Preload("Cards", cardsByPosition).
		Where("author_id = ?", authorID).
		Order("id asc").
		Find(&decks).Error
	if err != nil {
		return nil, err
	}
	return decks, nil
}

func (r *gormRepository) UpsertUser(ctx context.Context, id uint, username string) error {
	u := game.User{ID: id, Username: username}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&u).Error
}

func (r *gormRepository) GetUserByID(ctx context.Context, id uint) (*game.User, error) {
	var u game.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, game.ErrUserNotFound)
	}
	return &u, nil
}

// GetTopPlayers returns top N players ordered by victories desc, then
// draws desc.
func (r *gormRepository) GetTopPlayers(ctx context.Context, limit int) ([]game.User, error) {
	if limit <= 0 {
		limit = constants.DefaultLeaderboard
	}
	var users []game.User
	if err := r.db.WithContext(ctx).Model(&game.User{}).
		Order("victories DESC").
		Order("draws DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *gormRepository) FindUncountedFinishedMatches(ctx context.Context, limit int) ([]game.Match, error) {
	var matches []game.Match
	q := r.db.WithContext(ctx).
		Where("status = ? AND stats_counted = ?", game.MatchFinished, false).
		Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&matches).Error; err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *gormRepository) InTx(ctx context.Context, fn func(Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockMatch(id uint) (*game.Match, error) {
	q := t.db.Preload("Invitation")
	// SQLite has no row locks; its single connection already serializes
	// transactions.
	if t.db.Dialector.Name() == constants.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m game.Match
	if err := q.First(&m, id).Error; err != nil {
		return nil, notFound(err, game.ErrMatchNotFound)
	}
	return &m, nil
}

func (t *gormTx) CountRounds(matchID uint) (int, error) {
	return countRounds(t.db, matchID)
}

func (t *gormTx) FindRoundByTurn(matchID uint, turn int) (*game.Round, error) {
	return findRoundByTurn(t.db, matchID, turn)
}

func (t *gormTx) ListRounds(matchID uint) ([]game.Round, error) {
	return listRounds(t.db, matchID)
}

func (t *gormTx) CreateRound(r *game.Round) error {
	if err := t.db.Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return game.ErrTurnConflict
		}
		return err
	}
	return nil
}

func (t *gormTx) SaveMatch(m *game.Match) error {
	return t.db.Model(&game.Match{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"opponent_id":      m.OpponentID,
		"owner_deck_id":    m.OwnerDeckID,
		"opponent_deck_id": m.OpponentDeckID,
		"status":           m.Status,
		"stats_counted":    m.StatsCounted,
	}).Error
}

func (t *gormTx) SaveInvitation(inv *game.Invitation) error {
	return t.db.Save(inv).Error
}

func (t *gormTx) GetDeckByID(id uint) (*game.Deck, error) {
	return getDeck(t.db, id)
}

func (t *gormTx) ReplaceDeckCards(deckID uint, creatureIDs []int) error {
	// hard delete so the (deck_id, position) index never sees old rows
	if err := t.db.Unscoped().Where("deck_id = ?", deckID).Delete(&game.DeckCard{}).Error; err != nil {
		return err
	}
	cards := make([]game.DeckCard, len(creatureIDs))
	for i, id := range creatureIDs {
		cards[i] = game.DeckCard{DeckID: deckID, Position: i, CreatureID: id}
	}
	if len(cards) == 0 {
		return nil
	}
	if err := t.db.Create(&cards).Error; err != nil {
		return err
	}
	// touch updated_at on the deck
	return t.db.Model(&game.Deck{}).Where("id = ?", deckID).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (t *gormTx) AddUserResult(userID uint, victories, defeats, draws int) error {
	u := game.User{ID: userID}
	if err := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
		return err
	}
	return t.db.Model(&game.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"victories": gorm.Expr("victories + ?", victories),
		"defeats":   gorm.Expr("defeats + ?", defeats),
		"draws":     gorm.Expr("draws + ?", draws),
	}).Error
}

func listRounds(db *gorm.DB, matchID uint) ([]game.Round, error) {
	var rounds []game.Round
	if err := roundsByTurn(db.Where("match_id = ?", matchID)).Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

func countRounds(db *gorm.DB, matchID uint) (int, error) {
	var n int64
	if err := db.Model(&game.Round{}).Where("match_id = ?", matchID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func findRoundByTurn(db *gorm.DB, matchID uint, turn int) (*game.Round, error) {
	var round game.Round
	if err := db.Where("match_id = ? AND turn = ?", matchID, turn).First(&round).Error; err != nil {
		return nil, notFound(err, game.ErrRoundNotFound)
	}
	return &round, nil
}

func getDeck(db *gorm.DB, id uint) (*game.Deck, error) {
	var d game.Deck
	if err := db.Preload("Cards", cardsByPosition).First(&d, id).Error; err != nil {
		return nil, notFound(err, game.ErrDeckNotFound)
	}
	return &d, nil
}
