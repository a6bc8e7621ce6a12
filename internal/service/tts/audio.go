package tts

import (
	"encoding/base64"
	"mime"
	"strings"
)

// Audio непрозрачный аудио-ответ бэкенда. Клиент не разбирает и не перекодирует данные,
// это забота плеера.
type Audio struct {
	Data        []byte
	ContentType string
}

// Empty сообщает, что полезной нагрузки нет.
func (a Audio) Empty() bool { return len(a.Data) == 0 }

// MediaType тип без параметров; audio/wav, если бэкенд не указал.
func (a Audio) MediaType() string {
	mt, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		return "audio/wav"
	}
	return mt
}

// DataURI base64 data URI: так аудио хранит мобильный клиент.
func (a Audio) DataURI() string {
	return "data:" + a.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Extension расширение файла для сохранения.
func (a Audio) Extension() string {
	switch strings.ToLower(a.MediaType()) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg", "audio/opus":
		return ".ogg"
	default:
		return ".wav"
	}
}
