package models

import (
	"time"
)

// Article represents one ingested, extracted web page, owned by a QueryConfig
type Article struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	QueryConfigID uint         `gorm:"index;not null" json:"query_config_id"`
	URL           string       `gorm:"uniqueIndex;not null" json:"url"`
	Title         string       `json:"title"`
	Snippet       string       `json:"snippet"`
	MainText      string       `gorm:"type:text" json:"main_text"`
	WordCount     int          `json:"word_count"`
	ReadingTime   int          `json:"reading_time"` // minutes
	Author        string       `json:"author"`
	PublishDate   string       `json:"publish_date"` // raw value from the page, best-effort
	Language      string       `json:"language"`
	Tags          StringSlice  `gorm:"type:json" json:"tags"`
	Links         LinkList     `gorm:"type:json" json:"links"`
	Videos        MediaRefList `gorm:"type:json" json:"videos"`
	Audios        MediaRefList `gorm:"type:json" json:"audios"`
	Assets        []Asset      `gorm:"constraint:OnDelete:CASCADE" json:"assets"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// AssetCount returns the number of successfully downloaded assets
func (a *Article) AssetCount() int {
	n := 0
	for _, asset := range a.Assets {
		if asset.LocalPath != nil {
			n++
		}
	}
	return n
}

// AssetBytes returns the cumulative size of successfully downloaded assets
func (a *Article) AssetBytes() int64 {
	var total int64
	for _, asset := range a.Assets {
		if asset.LocalPath != nil {
			total += asset.ByteSize
		}
	}
	return total
}

// Asset represents one downloaded binary resource owned by an Article.
// A nil LocalPath means the download failed and the reference is
// metadata-only; that is not an error for the owning Article.
type Asset struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ArticleID    uint      `gorm:"index;not null" json:"article_id"`
	SourceURL    string    `gorm:"not null" json:"source_url"`
	LocalPath    *string   `json:"local_path"`
	ByteSize     int64     `gorm:"default:0" json:"byte_size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	AltText      string    `json:"alt_text"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
