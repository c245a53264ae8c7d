package gorm

import (
	"time"

	"github.com/google/uuid"
	gormlib "gorm.io/gorm"
)

// ChannelManager is a third-party distribution endpoint kept in sync with
// local availability. CredentialRef is a secret-store key, never the secret.
type ChannelManager struct {
	ID                string     `gorm:"column:id;primaryKey;type:uuid"`
	Name              string     `gorm:"column:name;type:varchar(120);not null"`
	Transport         string     `gorm:"column:transport;type:varchar(20);not null"`
	EndpointURL       string     `gorm:"column:endpoint_url;type:text;not null"`
	CredentialRef     string     `gorm:"column:credential_ref;type:varchar(120)"`
	AuthScheme        string     `gorm:"column:auth_scheme;type:varchar(20)"`
	IsActive          bool       `gorm:"column:is_active;default:false;index"`
	MaxRetries        int        `gorm:"column:max_retries;default:3"`
	RetryDelaySeconds int        `gorm:"column:retry_delay_seconds;default:60"`
	LastSyncAt        *time.Time `gorm:"column:last_sync_at"`
	LastSyncStatus    *string    `gorm:"column:last_sync_status;type:varchar(20)"`
	LastSyncError     *string    `gorm:"column:last_sync_error;type:text"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ChannelManager) TableName() string {
	return "channel_managers"
}

func (c *ChannelManager) BeforeCreate(tx *gormlib.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// RetryDelay is the fixed wait between attempts.
func (c ChannelManager) RetryDelay() time.Duration {
	if c.RetryDelaySeconds < 0 {
		return 0
	}
	return time.Duration(c.RetryDelaySeconds) * time.Second
}
