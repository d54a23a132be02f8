package models

const (
	// DefaultRentalMonths длительность аренды по умолчанию
	DefaultRentalMonths = 1

	// RateLimitRequests количество заявок тенанта в окне
	RateLimitRequests = 5

	// RateLimitWindow окно ограничения частоты заявок в секундах
	RateLimitWindow = 60

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 128

	// DefaultExportRangeMonthsBefore месяцы до текущей даты для экспорта
	DefaultExportRangeMonthsBefore = 1

	// DefaultExportRangeMonthsAfter месяцы после текущей даты для экспорта
	DefaultExportRangeMonthsAfter = 2
)
