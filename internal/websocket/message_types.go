package websocket

// Сообщения от клиента
const (
	// GAME_NEXT запрашивает текущий или следующий вопрос
	GAME_NEXT = "game:next"

	// GAME_ANSWER передает ответ на текущий вопрос
	GAME_ANSWER = "game:answer"

	// GAME_TIMEOUT сообщает, что время на вопрос истекло
	GAME_TIMEOUT = "game:timeout"

	// GAME_SUMMARY запрашивает сводку по сыгранным раундам
	GAME_SUMMARY = "game:summary"

	// GAME_FINISH завершает игру
	GAME_FINISH = "game:finish"

	// USER_HEARTBEAT проверяет соединение
	USER_HEARTBEAT = "user:heartbeat"
)

// Сообщения от сервера
const (
	SERVER_QUESTION  = "server:question"
	SERVER_RESULT    = "server:result"
	SERVER_SUMMARY   = "server:summary"
	SERVER_FINISHED  = "server:finished"
	SERVER_ERROR     = "server:error"
	SERVER_HEARTBEAT = "server:heartbeat"
)
