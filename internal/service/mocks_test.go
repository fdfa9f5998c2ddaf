package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/apperr"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/recognition"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Hand-written fakes for the repository and collaborator interfaces.

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct {
	users  map[uint]*models.User
	nextID uint
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uint]*models.User), nextID: 1}
}

func (m *MockUserRepository) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) FindByEmail(email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByUsername(username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) FindByID(id uint) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockUserRepository) Update(user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.users[user.ID] = user
	return nil
}

// MockGroupRepository implements repository.GroupRepositoryInterface.
type MockGroupRepository struct {
	groups      map[uint]*models.Group
	memberships map[uint]map[uint]models.GroupRole
	nextID      uint
}

func NewMockGroupRepository() *MockGroupRepository {
	return &MockGroupRepository{
		groups:      make(map[uint]*models.Group),
		memberships: make(map[uint]map[uint]models.GroupRole),
		nextID:      1,
	}
}

func (m *MockGroupRepository) AddMember(groupID, userID uint, role models.GroupRole) {
	if _, ok := m.memberships[groupID]; !ok {
		m.memberships[groupID] = make(map[uint]models.GroupRole)
	}
	m.memberships[groupID][userID] = role
}

func (m *MockGroupRepository) CreateWithPoster(group *models.Group) error {
	if group.ID == 0 {
		group.ID = m.nextID
		m.nextID++
	}
	m.groups[group.ID] = group
	m.AddMember(group.ID, group.CreatorID, models.RolePoster)
	return nil
}

func (m *MockGroupRepository) FindByID(id uint) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) FindByNameAndCreator(name string, creatorID uint) (*models.Group, error) {
	for _, g := range m.groups {
		if g.Name == name && g.CreatorID == creatorID {
			return g, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) GetMembers(groupID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for userID, role := range m.memberships[groupID] {
		out = append(out, models.GroupMember{GroupID: groupID, UserID: userID, Role: role})
	}
	return out, nil
}

func (m *MockGroupRepository) IsMember(groupID, userID uint) (bool, error) {
	_, ok := m.memberships[groupID][userID]
	return ok, nil
}

func (m *MockGroupRepository) GetMemberRole(groupID, userID uint) (models.GroupRole, error) {
	if role, ok := m.memberships[groupID][userID]; ok {
		return role, nil
	}
	return "", gorm.ErrRecordNotFound
}

func (m *MockGroupRepository) GetUserGroups(userID uint) ([]models.GroupMember, error) {
	var out []models.GroupMember
	for groupID, members := range m.memberships {
		if role, ok := members[userID]; ok {
			member := models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
			if g, ok := m.groups[groupID]; ok {
				member.Group = *g
			}
			out = append(out, member)
		}
	}
	return out, nil
}

func (m *MockGroupRepository) CountMemberships(userID uint) (int64, error) {
	var n int64
	for _, members := range m.memberships {
		if _, ok := members[userID]; ok {
			n++
		}
	}
	return n, nil
}

// MockGroupInviteRepository implements repository.GroupInviteRepositoryInterface.
// Redeem mirrors the production transaction semantics against the group mock.
// findOpenErr, when set, makes FindOpen fail as a flaky database would.
type MockGroupInviteRepository struct {
	invites     map[uint]*models.GroupInvite
	groupRepo   *MockGroupRepository
	nextID      uint
	findOpenErr error
}

func NewMockGroupInviteRepository(groupRepo *MockGroupRepository) *MockGroupInviteRepository {
	return &MockGroupInviteRepository{
		invites:   make(map[uint]*models.GroupInvite),
		groupRepo: groupRepo,
		nextID:    1,
	}
}

func (m *MockGroupInviteRepository) Create(invite *models.GroupInvite) error {
	if invite.ID == 0 {
		invite.ID = m.nextID
		m.nextID++
	}
	m.invites[invite.ID] = invite
	return nil
}

func (m *MockGroupInviteRepository) FindByID(id uint) (*models.GroupInvite, error) {
	if inv, ok := m.invites[id]; ok {
		return inv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupInviteRepository) FindByToken(token string) (*models.GroupInvite, error) {
	for _, inv := range m.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupInviteRepository) FindOpen(groupID, inviterID uint, now time.Time) (*models.GroupInvite, error) {
	if m.findOpenErr != nil {
		return nil, m.findOpenErr
	}
	for _, inv := range m.invites {
		if inv.GroupID == groupID && inv.InviterID == inviterID && !inv.Used && !inv.Expired(now) {
			return inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockGroupInviteRepository) Redeem(token string, userID uint, now time.Time) (*models.GroupInvite, error) {
	invite, err := m.FindByToken(token)
	if err != nil {
		return nil, apperr.NotFound("invite token")
	}
	if invite.Used {
		return nil, apperr.Conflict("invite already used")
	}
	if invite.Expired(now) {
		return nil, apperr.Expired("invite token")
	}

	memberships, _ := m.groupRepo.CountMemberships(userID)
	if memberships > 0 {
		return nil, apperr.Conflict("user already belongs to a group")
	}

	m.groupRepo.AddMember(invite.GroupID, userID, models.RoleViewer)
	invite.Used = true
	invite.UsedAt = &now
	invite.InvitedUserID = &userID
	return invite, nil
}

func (m *MockGroupInviteRepository) Delete(id uint) error {
	delete(m.invites, id)
	return nil
}

// MockItemRepository implements repository.ItemRepositoryInterface. Delete
// mimics the DB cascade over images and the thread.
type MockItemRepository struct {
	items        map[uint]*models.Item
	images       map[uint][]models.ItemImage
	threads      map[uint]*models.Thread
	nextID       uint
	nextImageID  uint
	nextThreadID uint
}

func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items:        make(map[uint]*models.Item),
		images:       make(map[uint][]models.ItemImage),
		threads:      make(map[uint]*models.Thread),
		nextID:       1,
		nextImageID:  1,
		nextThreadID: 1,
	}
}

func (m *MockItemRepository) CreateWithThread(item *models.Item) error {
	if item.ID == 0 {
		item.ID = m.nextID
		m.nextID++
	}
	thread := &models.Thread{ID: m.nextThreadID, ItemID: item.ID}
	m.nextThreadID++
	item.Thread = thread
	m.items[item.ID] = item
	m.threads[thread.ID] = thread
	return nil
}

func (m *MockItemRepository) FindByID(id uint) (*models.Item, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockItemRepository) ListByGroup(groupID uint, status models.ItemStatus) ([]models.Item, error) {
	var out []models.Item
	for _, item := range m.items {
		if item.GroupID != groupID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockItemRepository) GetImages(itemID uint) ([]models.ItemImage, error) {
	return m.images[itemID], nil
}

func (m *MockItemRepository) AddImage(image *models.ItemImage) error {
	if image.ID == 0 {
		image.ID = m.nextImageID
		m.nextImageID++
	}
	m.images[image.ItemID] = append(m.images[image.ItemID], *image)
	return nil
}

func (m *MockItemRepository) UpdateStatus(id uint, status models.ItemStatus) error {
	item, ok := m.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = status
	return nil
}

func (m *MockItemRepository) Delete(id uint) (bool, error) {
	item, ok := m.items[id]
	if !ok {
		return false, nil
	}
	delete(m.items, id)
	delete(m.images, id)
	if item.Thread != nil {
		delete(m.threads, item.Thread.ID)
	}
	return true, nil
}

func (m *MockItemRepository) FindThreadByItemID(itemID uint) (*models.Thread, error) {
	for _, thread := range m.threads {
		if thread.ItemID == itemID {
			return thread, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockItemRepository) FindThreadByID(threadID uint) (*models.Thread, error) {
	if thread, ok := m.threads[threadID]; ok {
		return thread, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// MockMessageRepository implements repository.MessageRepositoryInterface.
type MockMessageRepository struct {
	messages         map[uint]*models.Message
	attachments      map[uint][]models.Attachment
	itemRepo         *MockItemRepository
	nextID           uint
	nextAttachmentID uint
}

func NewMockMessageRepository(itemRepo *MockItemRepository) *MockMessageRepository {
	return &MockMessageRepository{
		messages:         make(map[uint]*models.Message),
		attachments:      make(map[uint][]models.Attachment),
		itemRepo:         itemRepo,
		nextID:           1,
		nextAttachmentID: 1,
	}
}

func (m *MockMessageRepository) Create(message *models.Message) error {
	if message.ID == 0 {
		message.ID = m.nextID
		m.nextID++
	}
	message.CreatedAt = time.Now()
	m.messages[message.ID] = message
	return nil
}

func (m *MockMessageRepository) FindByID(id uint) (*models.Message, error) {
	message, ok := m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *message
	copied.Attachments = m.attachments[id]
	return &copied, nil
}

func (m *MockMessageRepository) FindThreadMessages(threadID uint, cursor uint, limit int) ([]models.Message, error) {
	var out []models.Message
	for _, message := range m.messages {
		if message.ThreadID != threadID {
			continue
		}
		if cursor > 0 && message.ID >= cursor {
			continue
		}
		copied := *message
		copied.Attachments = m.attachments[message.ID]
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockMessageRepository) ListByItem(itemID uint) ([]models.Message, error) {
	thread, err := m.itemRepo.FindThreadByItemID(itemID)
	if err != nil {
		return nil, nil
	}
	var out []models.Message
	for _, message := range m.messages {
		if message.ThreadID == thread.ID {
			out = append(out, *message)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockMessageRepository) GetAttachments(messageID uint) ([]models.Attachment, error) {
	return m.attachments[messageID], nil
}

func (m *MockMessageRepository) AddAttachment(attachment *models.Attachment) error {
	if attachment.ID == 0 {
		attachment.ID = m.nextAttachmentID
		m.nextAttachmentID++
	}
	m.attachments[attachment.MessageID] = append(m.attachments[attachment.MessageID], *attachment)
	return nil
}

func (m *MockMessageRepository) DeleteWithAttachments(messageID uint) error {
	if _, ok := m.messages[messageID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.messages, messageID)
	delete(m.attachments, messageID)
	return nil
}

// MockReactionRepository implements repository.ReactionRepositoryInterface.
// missNextFind makes the next FindByMessageAndUser report no row even when
// one exists, simulating a concurrent insert between lookup and upsert.
type MockReactionRepository struct {
	reactions    map[uint]*models.Reaction
	nextID       uint
	missNextFind bool
}

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{reactions: make(map[uint]*models.Reaction), nextID: 1}
}

func (m *MockReactionRepository) FindByMessageAndUser(messageID, userID uint) (*models.Reaction, error) {
	if m.missNextFind {
		m.missNextFind = false
		return nil, gorm.ErrRecordNotFound
	}
	for _, r := range m.reactions {
		if r.MessageID == messageID && r.UserID == userID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockReactionRepository) Upsert(reaction *models.Reaction) error {
	for _, r := range m.reactions {
		if r.MessageID == reaction.MessageID && r.UserID == reaction.UserID {
			r.Type = reaction.Type
			*reaction = *r
			return nil
		}
	}
	reaction.ID = m.nextID
	m.nextID++
	reaction.CreatedAt = time.Now()
	m.reactions[reaction.ID] = reaction
	return nil
}

func (m *MockReactionRepository) Delete(messageID, userID uint) (bool, error) {
	for id, r := range m.reactions {
		if r.MessageID == messageID && r.UserID == userID {
			delete(m.reactions, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockReactionRepository) ListByMessage(messageID uint) ([]models.Reaction, error) {
	var out []models.Reaction
	for _, r := range m.reactions {
		if r.MessageID == messageID {
			out = append(out, *r)
		}
	}
	return out, nil
}

// MockEmbeddingRepository implements repository.EmbeddingRepositoryInterface.
type MockEmbeddingRepository struct {
	embeddings map[uint]*models.MessageEmbedding // keyed by message ID
	nextID     uint
}

func NewMockEmbeddingRepository() *MockEmbeddingRepository {
	return &MockEmbeddingRepository{embeddings: make(map[uint]*models.MessageEmbedding), nextID: 1}
}

func (m *MockEmbeddingRepository) Upsert(embedding *models.MessageEmbedding) error {
	if existing, ok := m.embeddings[embedding.MessageID]; ok {
		embedding.ID = existing.ID
	} else {
		embedding.ID = m.nextID
		m.nextID++
	}
	m.embeddings[embedding.MessageID] = embedding
	return nil
}

func (m *MockEmbeddingRepository) SearchByItem(itemID uint, query pgvector.Vector, limit int) ([]models.MessageEmbedding, error) {
	var out []models.MessageEmbedding
	for _, e := range m.embeddings {
		if e.ItemID == itemID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID < out[j].MessageID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockEmbeddingRepository) DeleteByMessage(messageID uint) error {
	delete(m.embeddings, messageID)
	return nil
}

func (m *MockEmbeddingRepository) DeleteByItem(itemID uint) error {
	for messageID, e := range m.embeddings {
		if e.ItemID == itemID {
			delete(m.embeddings, messageID)
		}
	}
	return nil
}

func pgVectorZero() pgvector.Vector {
	return pgvector.NewVector(make([]float32, 8))
}

// fakeBlobStore implements BlobStore with switchable failures.
type fakeBlobStore struct {
	uploads     []string
	deletes     []string
	failUpload  bool
	failDeletes map[string]bool
	nextN       int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{failDeletes: make(map[string]bool)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if f.failUpload {
		return "", errors.New("bucket unreachable")
	}
	io.Copy(io.Discard, body)
	f.nextN++
	url := "http://blobs.test/bucket/" + key
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, blobURL string) error {
	if f.failDeletes[blobURL] {
		return errors.New("bucket unreachable")
	}
	f.deletes = append(f.deletes, blobURL)
	return nil
}

// fakeDetector implements ObjectDetector.
type fakeDetector struct {
	detections []recognition.Detection
	err        error
}

func (f *fakeDetector) Detect(ctx context.Context, imageData []byte, contentType string) ([]recognition.Detection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detections, nil
}

// fakeLanguageModel implements LanguageModel.
type fakeLanguageModel struct {
	summary    string
	summarized []string
	embedErr   error
	sumErr     error
}

func (f *fakeLanguageModel) Summarize(ctx context.Context, text string) (string, error) {
	if f.sumErr != nil {
		return "", f.sumErr
	}
	f.summarized = append(f.summarized, text)
	return f.summary, nil
}

func (f *fakeLanguageModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(len(text) % (i + 2))
	}
	return vec, nil
}
