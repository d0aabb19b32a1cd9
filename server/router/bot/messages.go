package bot

// Supported interface languages, in menu order.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "ru", Name: "Русский"},
	{Code: "uk", Name: "Українська"},
}

// DefaultLanguage is used until an owner picks one.
const DefaultLanguage = "en"

// Language is an entry of the language menu.
type Language struct {
	Code string
	Name string
}

// IsSupportedLanguage reports whether code has a message catalogue.
func IsSupportedLanguage(code string) bool {
	_, ok := catalogues[code]
	return ok
}

type messageKey int

const (
	msgChooseLanguage messageKey = iota
	msgLanguageSet
	msgReminderSet
	msgInvalidFormat
	msgInvalidDateTime
	msgInstantInPast
	msgStorageFailure
	msgNoReminders
	msgDeleteButton
	msgReminderDeleted
	msgUnknownCommand
	msgRateLimited
	msgUnknownAction
)

const chooseLanguage = "🌐 Choose your language / Выберите язык / Оберіть мову"

var catalogues = map[string]map[messageKey]string{
	"en": {
		msgChooseLanguage:  chooseLanguage,
		msgLanguageSet:     "✅ Language set. Send your reminder like:\n- Buy milk at 18:30\n- Buy milk 28.07.2025 at 18:30",
		msgReminderSet:     "✅ Reminder set!",
		msgInvalidFormat:   "❌ Invalid format. Use:\n1. Buy milk at 18:30\n2. Buy milk 28.07.2025 at 18:30",
		msgInvalidDateTime: "❌ Invalid date/time format. Example:\nBuy milk 28.07.2025 at 18:30",
		msgInstantInPast:   "❌ This date and time has already passed.",
		msgStorageFailure:  "⚠️ Something went wrong. Please try again later.",
		msgNoReminders:     "ℹ️ No reminders found.",
		msgDeleteButton:    "❌ Delete",
		msgReminderDeleted: "🗑️ Reminder deleted.",
		msgUnknownCommand:  "❌ Invalid format. Use:\n1. /start\n2. /reminders",
		msgRateLimited:     "⏳ Too many messages. Please slow down.",
		msgUnknownAction:   "❌ Unknown action.",
	},
	"ru": {
		msgChooseLanguage:  chooseLanguage,
		msgLanguageSet:     "✅ Язык установлен. Отправьте напоминание как:\n- Купить молоко в 18:30\n- Купить молоко 28.07.2025 в 18:30",
		msgReminderSet:     "✅ Напоминание сохранено!",
		msgInvalidFormat:   "❌ Неверный формат. Используйте:\n1. Купить молоко в 18:30\n2. Купить молоко 28.07.2025 в 18:30",
		msgInvalidDateTime: "❌ Неверный формат даты/времени. Пример:\nКупить молоко 28.07.2025 в 18:30",
		msgInstantInPast:   "❌ Эти дата и время уже прошли.",
		msgStorageFailure:  "⚠️ Что-то пошло не так. Попробуйте позже.",
		msgNoReminders:     "ℹ️ Напоминаний нет.",
		msgDeleteButton:    "❌ Удалить",
		msgReminderDeleted: "🗑️ Напоминание удалено.",
		msgUnknownCommand:  "❌ Неверный формат. Использовать:\n1. /start\n2. /reminders",
		msgRateLimited:     "⏳ Слишком много сообщений. Подождите немного.",
		msgUnknownAction:   "❌ Неизвестное действие.",
	},
	"uk": {
		msgChooseLanguage:  chooseLanguage,
		msgLanguageSet:     "✅ Мову встановлено. Надішліть нагадування як:\n- Купити молоко о 18:30\n- Купити молоко 28.07.2025 о 18:30",
		msgReminderSet:     "✅ Нагадування збережено!",
		msgInvalidFormat:   "❌ Невірний формат. Використовуйте:\n1. Купити молоко о 18:30\n2. Купити молоко 28.07.2025 о 18:30",
		msgInvalidDateTime: "❌ Невірний формат дати/часу. Приклад:\nКупити молоко 28.07.2025 о 18:30",
		msgInstantInPast:   "❌ Ця дата і час уже минули.",
		msgStorageFailure:  "⚠️ Щось пішло не так. Спробуйте пізніше.",
		msgNoReminders:     "ℹ️ Нагадувань немає.",
		msgDeleteButton:    "❌ Видалити",
		msgReminderDeleted: "🗑️ Нагадування видалено.",
		msgUnknownCommand:  "❌ Невірний формат. Використовуйте:\n1. /start\n2. /reminders",
		msgRateLimited:     "⏳ Забагато повідомлень. Зачекайте трохи.",
		msgUnknownAction:   "❌ Невідома дія.",
	},
}

func message(language string, key messageKey) string {
	catalogue, ok := catalogues[language]
	if !ok {
		catalogue = catalogues[DefaultLanguage]
	}
	return catalogue[key]
}
