// Package entitlement решает, может ли игрок начать игру сегодня, и ведёт учёт
// сыгранных партий и опыта в профиле.
//
// Трекер работает только с переданным профилем в памяти; сохранением изменений
// занимается сервис профилей.
package entitlement

import (
	"errors"
	"math"
	"time"

	"github.com/magabrotheeeer/clubhouse/internal/models"
)

// MaxExperience предел опыта в профиле, колонка experience_points имеет тип INT.
const MaxExperience = math.MaxInt32

var (
	// ErrNegativeExperience возвращается при попытке начислить отрицательный опыт.
	ErrNegativeExperience = errors.New("experience points must not be negative")
	// ErrExperienceOverflow начисление вывело бы опыт за MaxExperience.
	ErrExperienceOverflow = errors.New("experience points limit exceeded")
)

// Policy параметры квот и прокачки.
type Policy struct {
	// DefaultDailyLimit лимит игр в день для профиля без тарифного плана.
	DefaultDailyLimit int
	// XPPerLevel количество опыта на один уровень.
	XPPerLevel int
	// Location часовой пояс, в котором определяется календарный день.
	Location *time.Location
}

// DefaultPolicy возвращает политику по умолчанию: 5 игр в день, 100 XP на уровень, UTC.
func DefaultPolicy() Policy {
	return Policy{
		DefaultDailyLimit: 5,
		XPPerLevel:        100,
		Location:          time.UTC,
	}
}

// Tracker применяет политику к профилям игроков.
type Tracker struct {
	policy Policy
	now    func() time.Time
}

// NewTracker создаёт трекер. Если now равен nil, используется time.Now.
func NewTracker(policy Policy, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	if policy.XPPerLevel <= 0 {
		policy.XPPerLevel = DefaultPolicy().XPPerLevel
	}
	return &Tracker{policy: policy, now: now}
}

// Policy возвращает действующую политику.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// Now текущее время по часам трекера.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Today начало текущего календарного дня в часовом поясе политики.
func (t *Tracker) Today() time.Time {
	return startOfDay(t.now(), t.policy.Location)
}

func startOfDay(ts time.Time, loc *time.Location) time.Time {
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dateOf трактует сохранённую дату сброса как календарную дату, без учёта пояса хранения.
func dateOf(ts time.Time, loc *time.Location) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ResetIfNewDay обнуляет дневной счётчик, если последний сброс был до сегодняшнего дня.
// Возвращает true, если профиль изменился и его нужно сохранить.
func (t *Tracker) ResetIfNewDay(p *models.PlayerProfile) bool {
	today := t.Today()
	if !dateOf(p.LastGameReset, t.policy.Location).Before(today) {
		return false
	}
	p.GamesPlayedToday = 0
	p.LastGameReset = today
	return true
}

// CanPlayToday проверяет дневную квоту, предварительно применив дневной сброс.
// reset сообщает, что сброс произошёл и профиль нужно сохранить.
func (t *Tracker) CanPlayToday(p *models.PlayerProfile) (allowed bool, reset bool) {
	reset = t.ResetIfNewDay(p)

	if p.Plan == nil {
		return p.GamesPlayedToday < t.policy.DefaultDailyLimit, reset
	}
	if p.Plan.Unlimited() {
		return true, reset
	}
	return p.GamesPlayedToday < p.Plan.GamesPerDayLimit, reset
}

// RemainingGames сколько игр осталось сегодня. Не применяет дневной сброс.
func (t *Tracker) RemainingGames(p *models.PlayerProfile) (remaining int, unlimited bool) {
	limit := t.policy.DefaultDailyLimit
	if p.Plan != nil {
		if p.Plan.Unlimited() {
			return 0, true
		}
		limit = p.Plan.GamesPerDayLimit
	}
	return max(limit-p.GamesPlayedToday, 0), false
}

// RecordGamePlayed увеличивает счётчики сыгранных партий и побед.
// Квоту не проверяет: вызывающий код обязан сначала вызвать CanPlayToday.
func (t *Tracker) RecordGamePlayed(p *models.PlayerProfile, won bool) {
	p.GamesPlayedToday++
	p.TotalGamesPlayed++
	if won {
		p.TotalGamesWon++
	}
}

// AddExperience начисляет опыт и пересчитывает уровень. Уровень только растёт.
func (t *Tracker) AddExperience(p *models.PlayerProfile, points int) (leveledUp bool, err error) {
	if points < 0 {
		return false, ErrNegativeExperience
	}
	if points > MaxExperience-p.ExperiencePoints {
		return false, ErrExperienceOverflow
	}
	p.ExperiencePoints += points

	newLevel := t.LevelFor(p.ExperiencePoints)
	if newLevel > p.Level {
		p.Level = newLevel
		return true, nil
	}
	return false, nil
}

// LevelFor уровень для заданного количества опыта: floor(xp / XPPerLevel) + 1.
func (t *Tracker) LevelFor(xp int) int {
	return xp/t.policy.XPPerLevel + 1
}
