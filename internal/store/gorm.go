package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"techink/internal/models"
	"techink/internal/utils"

	"gorm.io/gorm"
)

// DB implements Store on top of gorm/postgres. Relation uniqueness rides on
// the composite unique indexes declared in the models; the check inside each
// transaction gives the common case a clean ErrAlreadyExists, and the index
// catches the true races.
type DB struct {
	db *gorm.DB
}

func New(db *gorm.DB) *DB {
	return &DB{db: db}
}

// wrapErr maps gorm and driver errors onto the store's sentinel errors.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	msg := err.Error()
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint") {
		return ErrConflict
	}
	if strings.Contains(msg, "could not serialize") || strings.Contains(msg, "deadlock") {
		return ErrConflict
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (s *DB) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (s *DB) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	mapped := wrapErr(err)
	if errors.Is(mapped, ErrConflict) {
		// A handle or email collision, not a lost race
		return ErrAlreadyExists
	}
	return mapped
}

func (s *DB) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Poll").Preload("User").First(&post, postID).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &post, nil
}

func (s *DB) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Preload("Poll").Preload("User").Where("pid = ?", pid).First(&post).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &post, nil
}

func (s *DB) LikesOf(ctx context.Context, userID uint) ([]models.Like, error) {
	var likes []models.Like
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Limit(ReconcileLimit).Find(&likes).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return likes, nil
}

func (s *DB) VotesOf(ctx context.Context, userID uint) ([]models.VoteRecord, error) {
	var votes []models.VoteRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Limit(ReconcileLimit).Find(&votes).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return votes, nil
}

func (s *DB) CreateLike(ctx context.Context, userID, postID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			First(&existing).Error; err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, ErrAlreadyExists) {
		return ErrAlreadyExists
	}
	return wrapErr(err)
}

func (s *DB) DeleteLike(ctx context.Context, userID, postID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		// Counter never goes below zero even if it drifted
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("likes", gorm.Expr("GREATEST(likes - 1, 0)")).Error
	})
	return wrapErr(err)
}

func (s *DB) CreateVote(ctx context.Context, userID, postID uint, options []string) error {
	options = models.UniqueOptions(options)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VoteRecord
		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).
			First(&existing).Error; err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var poll models.Poll
		if err := tx.Where("post_id = ?", postID).First(&poll).Error; err != nil {
			return err
		}

		for _, label := range options {
			res := tx.Model(&models.PollOption{}).
				Where("poll_id = ? AND label = ?", poll.ID, label).
				UpdateColumn("votes", gorm.Expr("votes + ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return tx.Create(&models.VoteRecord{
			UserID:  userID,
			PostID:  postID,
			Options: models.JoinOptions(options),
		}).Error
	})
	if errors.Is(err, ErrAlreadyExists) {
		return ErrAlreadyExists
	}
	return wrapErr(err)
}

func (s *DB) AddPoints(ctx context.Context, userID uint, amount int, action string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.PointLog{
			UserID: userID,
			Amount: amount,
			Action: action,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			UpdateColumn("points", gorm.Expr("points + ?", amount)).
			Error
	})
	return wrapErr(err)
}

func (s *DB) PointBalance(ctx context.Context, userID uint) (int, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("points").First(&user, userID).Error; err != nil {
		return 0, wrapErr(err)
	}
	return user.Points, nil
}

func (s *DB) PinPost(ctx context.Context, postID uint) (*models.Post, error) {
	var pinned models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source models.Post
		if err := tx.Preload("Poll.Options").Preload("Poll").First(&source, postID).Error; err != nil {
			return err
		}

		pinned = models.Post{
			Pid:        utils.NewPid(),
			UserID:     source.UserID,
			Partition:  models.PartitionPinned,
			Headline:   source.Headline,
			Content:    source.Content,
			ImageURL:   source.ImageURL,
			Likes:      source.Likes,
			SourceType: source.SourceType,
			CreatedAt:  time.Now(),
		}
		if err := tx.Create(&pinned).Error; err != nil {
			return err
		}

		if source.Poll != nil {
			poll := models.Poll{
				PostID:        pinned.ID,
				AllowMultiple: source.Poll.AllowMultiple,
			}
			for _, o := range source.Poll.Options {
				poll.Options = append(poll.Options, models.PollOption{
					Position: o.Position,
					Label:    o.Label,
					Votes:    o.Votes,
				})
			}
			if err := tx.Create(&poll).Error; err != nil {
				return err
			}
			pinned.Poll = &poll
		}

		// Flow-authored posts stay in place; only user submissions are
		// removed from the feed partition.
		if source.SourceType == models.SourceUser {
			if err := tx.Delete(&models.Post{}, source.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return &pinned, nil
}
