// Package settings provides the process-wide configuration cache backed by
// the settings table. Reads never hit the database; the cache is loaded at
// startup and refreshed on writes.
package settings

import (
	"log"
	"sort"
	"sync"

	"github.com/fredserel/Sistema-kanban/internal/models"

	"gorm.io/gorm"
)

const masked = "••••••••"

type defaultSetting struct {
	Key         string
	Value       string
	Group       string
	Label       string
	Description string
	Encrypted   bool
}

var defaults = []defaultSetting{
	{"smtp_host", "", "email", "SMTP Host", "Mail server hostname; leave empty to disable sending", false},
	{"smtp_port", "587", "email", "SMTP Port", "Mail server port", false},
	{"smtp_username", "", "email", "SMTP Username", "Mail server login", false},
	{"smtp_password", "", "email", "SMTP Password", "Mail server password", true},
	{"mail_from_email", "noreply@kanban.local", "email", "Sender Address", "From address for notification emails", false},
	{"app_name", "Kanban", "general", "Application Name", "Name shown in emails and in the UI", false},
	{"app_url", "http://localhost:3000", "general", "Application URL", "Base URL used in email links", false},
}

// Cache is the settings service. Safe for concurrent use.
type Cache struct {
	db *gorm.DB

	mu     sync.RWMutex
	values map[string]string
}

func New(db *gorm.DB) *Cache {
	return &Cache{db: db, values: map[string]string{}}
}

// Load seeds missing defaults and fills the cache. Called once at startup.
func (c *Cache) Load() error {
	for _, def := range defaults {
		var existing models.Setting
		err := c.db.Where("key = ?", def.Key).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			row := models.Setting{
				Key:         def.Key,
				Value:       def.Value,
				Group:       def.Group,
				Label:       def.Label,
				Description: def.Description,
				Encrypted:   def.Encrypted,
			}
			if err := c.db.Create(&row).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		// keep the stored value, refresh the metadata
		existing.Group = def.Group
		existing.Label = def.Label
		existing.Description = def.Description
		existing.Encrypted = def.Encrypted
		if err := c.db.Save(&existing).Error; err != nil {
			return err
		}
	}
	return c.refresh()
}

func (c *Cache) refresh() error {
	var all []models.Setting
	if err := c.db.Find(&all).Error; err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]string, len(all))
	for _, s := range all {
		c.values[s.Key] = s.Value
	}
	return nil
}

// Get returns the cached value for key, or fallback when unset or empty.
func (c *Cache) Get(key, fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key]; ok && v != "" {
		return v
	}
	return fallback
}

// All returns every setting, masking encrypted values, ordered by group then
// key for stable API responses.
func (c *Cache) All() ([]models.Setting, error) {
	var all []models.Setting
	if err := c.db.Find(&all).Error; err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Group != all[j].Group {
			return all[i].Group < all[j].Group
		}
		return all[i].Key < all[j].Key
	})
	for i := range all {
		if all[i].Encrypted && all[i].Value != "" {
			all[i].Value = masked
		}
	}
	return all, nil
}

// Update is one key/value pair of a bulk settings write.
type Update struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BulkUpdate applies the updates and refreshes the cache. Unknown keys are
// ignored; encrypted values arriving as the mask placeholder are left alone.
func (c *Cache) BulkUpdate(updates []Update) error {
	for _, u := range updates {
		var setting models.Setting
		err := c.db.Where("key = ?", u.Key).First(&setting).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return err
		}
		if setting.Encrypted && u.Value == masked {
			continue
		}
		setting.Value = u.Value
		if err := c.db.Save(&setting).Error; err != nil {
			return err
		}
	}

	if err := c.refresh(); err != nil {
		return err
	}
	log.Printf("settings updated (%d keys)", len(updates))
	return nil
}
