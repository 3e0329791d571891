package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers и processor

	// ErrInvalidRating - оценка вне диапазона 1..5, событие отклонено до записи
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrConflictNotResolved - условная запись проиграла гонку
	// максимально допустимое число раз; событие нужно обработать повторно
	ErrConflictNotResolved = errors.New("aggregate write conflict not resolved after retries")

	// ErrStatsNotFound - у игры ещё нет ни одного отзыва
	ErrStatsNotFound = errors.New("game stats not found")

	// ErrUnknownEventType - событие с неизвестным типом
	ErrUnknownEventType = errors.New("unknown review event type")

	// ErrUnknownPeriod - запрошен неизвестный период трендов
	ErrUnknownPeriod = errors.New("unknown trending period")
)

// IsPermanentFailure сообщает, имеет ли смысл повторная доставка события:
// невалидные и неопознанные события не станут валидными, а исчерпанные
// повторы записи уходят в dead-letter таблицу для отложенной обработки
func IsPermanentFailure(err error) bool {
	return errors.Is(err, ErrInvalidRating) ||
		errors.Is(err, ErrUnknownEventType) ||
		errors.Is(err, ErrConflictNotResolved)
}
