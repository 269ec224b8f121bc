package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readEvent достает следующее сообщение из очереди клиента
func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case msg := <-c.send:
		var e Event
		require.NoError(t, json.Unmarshal(msg, &e))
		return e
	default:
		t.Fatal("Ожидалось сообщение в очереди клиента")
		return Event{}
	}
}

func TestHub_RegisterAndSend(t *testing.T) {
	hub := NewHub()
	a := NewClient(hub, nil, "s1")
	b := NewClient(hub, nil, "s1")
	other := NewClient(hub, nil, "s2")
	hub.Register(a)
	hub.Register(b)
	hub.Register(other)

	assert.Equal(t, 3, hub.ClientCount())
	assert.Equal(t, 2, hub.SessionClientCount("s1"))

	require.NoError(t, hub.SendJSONToSession("s1", Event{Type: SERVER_QUESTION}))
	assert.Equal(t, SERVER_QUESTION, readEvent(t, a).Type)
	assert.Equal(t, SERVER_QUESTION, readEvent(t, b).Type)
	assert.Len(t, other.send, 0, "Клиент другой сессии не должен получать сообщение")
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "s1")
	hub.Register(c)

	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, c.Send([]byte("x")), "Отправка в закрытый канал невозможна")
	assert.False(t, c.CloseSend(), "Повторное закрытие не выполняется")
}

func TestClient_SendDropsWhenFull(t *testing.T) {
	c := NewClient(nil, nil, "s1")
	for i := 0; i < defaultClientBufferSize; i++ {
		require.True(t, c.Send([]byte("{}")))
	}
	assert.False(t, c.Send([]byte("{}")), "Переполненный буфер не должен блокировать отправителя")
}

func TestManager_HandleMessage(t *testing.T) {
	m := NewManager(NewHub())
	var got struct {
		Answer string `json:"answer"`
	}
	m.RegisterHandler(GAME_ANSWER, func(data json.RawMessage, client *Client) error {
		return json.Unmarshal(data, &got)
	})
	m.RegisterHandler(GAME_FINISH, func(data json.RawMessage, client *Client) error {
		return errors.New("fatal")
	})
	c := NewClient(nil, nil, "s1")

	require.NoError(t, m.HandleMessage([]byte(`{"type":"game:answer","data":{"answer":"b"}}`), c))
	assert.Equal(t, "b", got.Answer)

	require.NoError(t, m.HandleMessage([]byte(`{"type":"game:unknown"}`), c), "Неизвестный тип не закрывает соединение")
	e := readEvent(t, c)
	assert.Equal(t, SERVER_ERROR, e.Type)
	assert.Equal(t, "unknown_message_type", e.Data.(map[string]interface{})["code"])

	assert.Error(t, m.HandleMessage([]byte(`not json`), c), "Невалидный JSON закрывает соединение")
	assert.Equal(t, SERVER_ERROR, readEvent(t, c).Type)

	assert.Error(t, m.HandleMessage([]byte(`{"type":"game:finish"}`), c))
}
