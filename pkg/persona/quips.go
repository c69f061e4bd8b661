package persona

import (
	"math/rand/v2"
	"strings"
)

// Static response tables for the auxiliary commands. These never touch the
// memory store or the generation provider.

const greeting = "👋 Привет! Я Демид — тот, кто начинает делать домашку за 20 минут до дедлайна.\n" +
	"Пиши что-нибудь — я постараюсь не уснуть.\n\n" +
	"Команды: /mood /sovet /status"

var moods = []string{
	"Как Google Docs при 15 редакторах — всё меняется, но никто не знает, кто начал",
	"Как очередь в столовую в 13:58 — напряжённое ожидание, но все надеются, что котлеты не кончились",
	"Как батарея на ноуте: 12%, но ещё 3 вкладки YouTube открыто",
	"Как моя вера в то, что я всё успею — слабая, но упорная",
}

var advices = []string{
	"Перед сном не смотри расписание на завтра. Это как читать спойлеры к жизни — только расстроишься.",
	"Если не можешь решить задачу — напиши «Ответ: 42». Если повезёт — препод подумает, что ты гений.",
	"Хочешь встать рано? Поставь будильник на 6:30, а второй — на 6:31, но в соседней комнате. Работает как пытка, но эффективно.",
	"Перед экзаменом съешь шоколадку. Даже если провалишься — будет чем утешиться.",
}

var statuses = []string{
	"Оффлайн. (На самом деле сижу в чате, но не хочу отвечать — слишком много непрочитанных сообщений)",
	"Пью кофе. Третий. Уже чувствую, как мозг пытается писать код на чистом отчаянии",
	"Читаю учебник. Перечитываю заголовок. Пытаюсь понять — это условие или ответ?",
	"Смотрю в окно. Думаю: может, если дождь закроет весь город — отменят пары?",
}

func pick(table []string) string {
	return table[rand.IntN(len(table))]
}

// Quip resolves an auxiliary command to a canned reply. The boolean reports
// whether text was a recognized command at all.
func Quip(text string) (string, bool) {
	cmd := strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexAny(cmd, " \t\n"); i > 0 {
		cmd = cmd[:i]
	}
	// Platforms may suffix commands with the bot handle, e.g. /mood@demid_bot.
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		return greeting, true
	case "/mood":
		return "Моё настроение: " + pick(moods), true
	case "/sovet":
		return "💡 Демид советует:\n" + pick(advices), true
	case "/status":
		return "📱 Статус Демида:\n" + pick(statuses), true
	default:
		return "", false
	}
}
