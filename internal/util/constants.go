package util

// 存储后端类型，对应 storage.type
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 对象键前缀，后接用户 ID
const (
	FilesPrefix   = "files"
	AvatarsPrefix = "avatars"
)

const (
	MimeImage = "image/"
	MimeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	MaxUploadBytes = 10 << 20
	MaxAvatarBytes = 2 << 20
)

// 投票取值，VoteNone 表示撤销
const (
	VoteDown = -1
	VoteNone = 0
	VoteUp   = 1
)
