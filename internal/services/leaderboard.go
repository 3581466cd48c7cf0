package services

import (
	"context"
	"os"
	"strconv"
	"sync"

	"techink/internal/models"
	"techink/internal/utils/log"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const leaderboardKey = "techink:leaderboard"

// Leaderboard keeps a redis ZSET of point balances next to the database.
// Redis is optional: with no client configured every read falls through to
// an ORDER BY on the users table.
type Leaderboard struct {
	rdb *redis.Client
}

var (
	leaderboard     *Leaderboard
	leaderboardOnce sync.Once
)

// GetLeaderboard returns the singleton leaderboard service.
func GetLeaderboard() *Leaderboard {
	leaderboardOnce.Do(func() {
		leaderboard = &Leaderboard{}
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			log.Log.Info("REDIS_ADDR not set, leaderboard served from database only")
			return
		}
		leaderboard.rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWD"),
			DB:       0, // use default DB
		})
	})
	return leaderboard
}

// Bump mirrors a point delta into the ZSET. Best effort.
func (l *Leaderboard) Bump(ctx context.Context, userID uint, delta int) {
	if l.rdb == nil {
		return
	}
	if err := l.rdb.ZIncrBy(ctx, leaderboardKey, float64(delta), userIDMember(userID)).Err(); err != nil {
		log.Log.WithError(err).Warn("leaderboard bump failed")
	}
}

// Top returns the n users with the highest balances, redis first, database
// as fallback and source of truth for the profile fields.
func (l *Leaderboard) Top(ctx context.Context, db *gorm.DB, n int) ([]models.User, error) {
	if l.rdb != nil {
		members, err := l.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
		if err == nil && len(members) > 0 {
			ids := make([]uint, 0, len(members))
			for _, m := range members {
				if s, ok := m.Member.(string); ok {
					ids = append(ids, memberUserID(s))
				}
			}
			var users []models.User
			if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err == nil {
				byID := make(map[uint]models.User, len(users))
				for _, u := range users {
					byID[u.ID] = u
				}
				ordered := make([]models.User, 0, len(ids))
				for _, id := range ids {
					if u, ok := byID[id]; ok {
						ordered = append(ordered, u)
					}
				}
				return ordered, nil
			}
		}
		if err != nil {
			log.Log.WithError(err).Warn("leaderboard read from redis failed, using database")
		}
	}

	var users []models.User
	err := db.WithContext(ctx).Order("points DESC").Limit(n).Find(&users).Error
	return users, err
}

func userIDMember(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func memberUserID(member string) uint {
	id, _ := strconv.ParseUint(member, 10, 64)
	return uint(id)
}
