package player

import "SupertonicClient/internal/service/tts"

// Status состояние воспроизведения, которое платформенный бэкенд присылает асинхронно
// со своей периодичностью.
type Status struct {
	PositionMs    int64
	DurationMs    int64
	IsPlaying     bool
	DidJustFinish bool
	// Seeks число успешных Seek с момента Load на момент снятия позиции.
	// По нему контроллер отбрасывает тики, прочитанные до перемотки.
	Seeks uint64
}

// Backend платформенная часть плеера: превращает аудио в воспроизводимый ресурс
// и управляет выводом звука. Одновременно держит не больше одного ресурса.
//
// onStatus может вызываться из другой горутины; бэкенд не должен вызывать его,
// удерживая собственные блокировки, которые берутся в остальных методах.
type Backend interface {
	Load(audio tts.Audio, onStatus func(Status)) error
	Play() error
	Pause() error
	Seek(ms int64) error
	Position() int64
	Duration() int64
	Unload() error
}
