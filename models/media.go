package models

// ProductMedia represents an optimized product image stored in the media cache
type ProductMedia struct {
	ID          int64  `json:"id"`
	ProductID   string `json:"productId"`
	Position    int    `json:"position"`
	DriveFileID string `json:"driveFileId,omitempty"`
	ThumbPath   string `json:"-"`
	MediumPath  string `json:"-"`
	ThumbURL    string `json:"thumbUrl"`
	MediumURL   string `json:"mediumUrl"`
	CreatedAt   string `json:"createdAt"`
}

// DriveImage is an image file found in the media Drive folder
type DriveImage struct {
	DriveFileID string `json:"driveFileId"`
	FileName    string `json:"fileName"`
}

// MediaSyncResult reports the outcome of a Drive sync
type MediaSyncResult struct {
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
