package dto

import (
	"time"

	"wardrobe/internal/entity/common"
)

// ItemQuery filters the wardrobe item history.
type ItemQuery struct {
	common.BaseParams
	UserUID  string `json:"-" form:"-" query:"-"`
	Category string `json:"category" form:"category" query:"category"`
	Color    string `json:"color" form:"color" query:"color"`
}

// OutfitSetQuery filters the generated outfit history.
type OutfitSetQuery struct {
	common.BaseParams
	UserUID string `json:"-" form:"-" query:"-"`
	Color   string `json:"color" form:"color" query:"color"`
}

// Image 一张可访问的图片。
type Image struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message        string `json:"message"`
	URL            string `json:"url"`
	PredictedClass string `json:"predicted_class"`
	Color          string `json:"color"`
}

// MixMatchData 是 /mix-match 响应中的 data 部分。
type MixMatchData struct {
	Outfits    []Image `json:"outfits"`
	Collection int     `json:"collection"`
	Color      string  `json:"color"`
}

// ItemSummary describes a stored wardrobe item.
type ItemSummary struct {
	ID        uint      `json:"id"`
	Filename  string    `json:"filename"`
	URL       string    `json:"url"`
	Category  string    `json:"category"`
	Color     string    `json:"color"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemListResponse is the response for listing wardrobe items.
type ItemListResponse struct {
	Items []ItemSummary `json:"items"`
	Meta  *common.Meta  `json:"meta"`
}

// OutfitSetSummary describes a generated collection.
type OutfitSetSummary struct {
	ID             uint      `json:"id"`
	Number         int       `json:"number"`
	Color          string    `json:"color"`
	SourceFilename string    `json:"source_filename"`
	Items          []string  `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
}

// OutfitSetListResponse is the response for listing outfit history.
type OutfitSetListResponse struct {
	Sets []OutfitSetSummary `json:"sets"`
	Meta *common.Meta       `json:"meta"`
}
