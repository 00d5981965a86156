package models

const (
	ParseModeHTML = "HTML"
)

// Ключи настроек. Значение берется сначала из override вызова,
// затем из таблицы settings, затем из конфига процесса.
const (
	KeySourceAPIKey      = "SOURCE_API_KEY"
	KeySourceFeedID      = "SOURCE_FEED_ID"
	KeyMessagingBotToken = "MESSAGING_BOT_TOKEN"
	KeyMessagingChannel  = "MESSAGING_CHANNEL_ID"
)

// RequiredSettingKeys — без любого из этих ключей цикл не стартует.
var RequiredSettingKeys = []string{
	KeySourceAPIKey,
	KeySourceFeedID,
	KeyMessagingBotToken,
	KeyMessagingChannel,
}

const (
	// DefaultFetchPageSize сколько последних постов запрашиваем у блога
	DefaultFetchPageSize = 10

	// DefaultProcessLimit сколько новых постов обрабатываем за один цикл
	DefaultProcessLimit = 3

	// DefaultSyncInterval интервал планировщика
	DefaultSyncInterval = "@every 30s"

	// DefaultRecentLimit сколько последних постов отдаем в статусе
	DefaultRecentLimit = 10

	// DefaultSeenCacheTTL время жизни записи в Redis-кэше (секунды)
	DefaultSeenCacheTTL = 7 * 24 * 60 * 60

	// TelegramCaptionLimit максимальная длина подписи к фото
	TelegramCaptionLimit = 1024

	// DefaultCallTimeoutSeconds таймаут одного сетевого вызова
	DefaultCallTimeoutSeconds = 30
)
