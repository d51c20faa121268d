package model

// File 上传的图片。内容保存在存储服务中，OCR 文本由客户端识别后回填
type File struct {
	OwnedModel
	Filename    string  `gorm:"size:255;not null" json:"filename"`
	StorageKey  string  `gorm:"size:255;not null" json:"-"`
	ContentType string  `gorm:"size:100" json:"contentType"`
	Size        int64   `json:"size"`
	OCR         *string `gorm:"type:text" json:"ocr"`
}

func (File) TableName() string {
	return "files"
}

type NoteFile struct {
	NoteID uint `gorm:"primaryKey"`
	FileID uint `gorm:"primaryKey;index"`
}

func (NoteFile) TableName() string {
	return "note_files"
}
