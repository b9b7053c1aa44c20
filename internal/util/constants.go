package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const MimeAudioMPEG = "audio/mpeg"
