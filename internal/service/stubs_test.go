package service

import (
	"context"

	"warbler/internal/models"
)

type txStub struct {
	calls int
}

func (s *txStub) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
	listFn          func(context.Context, string, int, int) ([]models.User, error)
	statsFn         func(context.Context, uint) (*models.UserStats, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, query, limit, offset)
}
func (s *userRepoStub) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.statsFn(ctx, id)
}

type messageRepoStub struct {
	createFn       func(context.Context, *models.Message) error
	getByIDFn      func(context.Context, uint) (*models.Message, error)
	deleteFn       func(context.Context, uint) error
	deleteByUserFn func(context.Context, uint) error
	listByUserFn   func(context.Context, uint, int) ([]models.Message, error)
	timelineFn     func(context.Context, uint, int) ([]models.Message, error)
	likedByFn      func(context.Context, uint, int) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.Message) error {
	return s.createFn(ctx, msg)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) DeleteByUser(ctx context.Context, userID uint) error {
	return s.deleteByUserFn(ctx, userID)
}
func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.listByUserFn(ctx, userID, limit)
}
func (s *messageRepoStub) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.timelineFn(ctx, userID, limit)
}
func (s *messageRepoStub) LikedBy(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.likedByFn(ctx, userID, limit)
}

type followRepoStub struct {
	createFn       func(context.Context, uint, uint) error
	deleteFn       func(context.Context, uint, uint) error
	existsFn       func(context.Context, uint, uint) (bool, error)
	followingFn    func(context.Context, uint) ([]models.User, error)
	followersFn    func(context.Context, uint) ([]models.User, error)
	followerIDsFn  func(context.Context, uint) ([]uint, error)
	followingIDsFn func(context.Context, uint) ([]uint, error)
	deleteByUserFn func(context.Context, uint) error
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followedID uint) error {
	return s.createFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followedID uint) error {
	return s.deleteFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followerIDsFn(ctx, userID)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}
func (s *followRepoStub) DeleteByUser(ctx context.Context, userID uint) error {
	return s.deleteByUserFn(ctx, userID)
}

type likeRepoStub struct {
	getFn               func(context.Context, uint, uint) (*models.Like, error)
	createFn            func(context.Context, *models.Like) error
	deleteFn            func(context.Context, uint) error
	messageIDsLikedByFn func(context.Context, uint) ([]uint, error)
	deleteByUserFn      func(context.Context, uint) error
}

func (s *likeRepoStub) Get(ctx context.Context, userID, messageID uint) (*models.Like, error) {
	return s.getFn(ctx, userID, messageID)
}
func (s *likeRepoStub) Create(ctx context.Context, like *models.Like) error {
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *likeRepoStub) MessageIDsLikedBy(ctx context.Context, userID uint) ([]uint, error) {
	return s.messageIDsLikedByFn(ctx, userID)
}
func (s *likeRepoStub) DeleteByUser(ctx context.Context, userID uint) error {
	return s.deleteByUserFn(ctx, userID)
}

type publisherStub struct {
	recipients []uint
	msg        *models.Message
}

func (p *publisherStub) Publish(_ context.Context, recipients []uint, msg *models.Message) error {
	p.recipients = recipients
	p.msg = msg
	return nil
}
