package repository

import (
	"github.com/MasanoriMatsuda-SB/ending-collection-backend/internal/models"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// CreateWithThread inserts the item and its discussion thread in one
// transaction: the thread exists exactly when the item does.
func (r *ItemRepository) CreateWithThread(item *models.Item) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		thread := models.Thread{ItemID: item.ID}
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		item.Thread = &thread
		return nil
	})
}

func (r *ItemRepository) FindByID(id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.Preload("Images").Preload("Thread").First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) ListByGroup(groupID uint, status models.ItemStatus) ([]models.Item, error) {
	q := r.db.Where("group_id = ?", groupID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []models.Item
	err := q.Preload("Images").Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *ItemRepository) GetImages(itemID uint) ([]models.ItemImage, error) {
	var images []models.ItemImage
	err := r.db.Where("item_id = ?", itemID).Find(&images).Error
	return images, err
}

func (r *ItemRepository) AddImage(image *models.ItemImage) error {
	return r.db.Create(image).Error
}

func (r *ItemRepository) UpdateStatus(id uint, status models.ItemStatus) error {
	return r.db.Model(&models.Item{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes the item row. Image rows and the thread (with its messages)
// are removed by the database's ON DELETE CASCADE, not application logic.
func (r *ItemRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.Item{}, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ItemRepository) FindThreadByItemID(itemID uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.Where("item_id = ?", itemID).First(&thread).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *ItemRepository) FindThreadByID(threadID uint) (*models.Thread, error) {
	var thread models.Thread
	err := r.db.First(&thread, threadID).Error
	if err != nil {
		return nil, err
	}
	return &thread, nil
}
