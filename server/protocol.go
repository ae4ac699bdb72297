package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 事件名（双向命名消息协议）
const (
	// S→C
	EventHello        = "hello"
	EventHowAreYou    = "how_are_you"
	EventAnyoneThere  = "anyone_there" // 客户端不监听，保持原样发送
	EventGoodToHear   = "good_to_hear"
	EventJoinSuccess  = "join_game_success"
	EventRemovePlayer = "remove_player"
	EventStateUpdate  = "state_update"
	EventError        = "error"
	EventAnnounce     = "announce"

	// C→S
	EventImFine         = "im_fine"
	EventChangeUsername = "change_username"
	EventJoinGame       = "join_game"
	EventMovePlayer     = "move_player"
)

// Message 统一的 WebSocket 文本帧结构
// 示例：{"event":"move_player","data":{"axis":"x","force":1}}
type Message[T any] struct {
	Event string `json:"event"`
	Data  T      `json:"data,omitempty"`
}

// Encode 编码一条出站消息
func Encode(event string, data any) ([]byte, error) {
	b, err := json.Marshal(Message[any]{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}

// Decode 解析入站消息外壳，负载保持原始 JSON 交给处理器
func Decode(raw []byte) (*Message[json.RawMessage], error) {
	var msg Message[json.RawMessage]
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &PayloadError{Err: err}
	}
	if msg.Event == "" {
		return nil, &PayloadError{Err: errors.New("missing event name")}
	}
	return &msg, nil
}

// HelloPayload 问候消息：演示负载无协议含义，ID 供客户端识别自己的玩家
type HelloPayload struct {
	ID          string `json:"id"`
	CrazyString string `json:"crazyString"`
	CoolArray   []any  `json:"coolArray"`
}

// ChangeUsernamePayload C→S change_username
type ChangeUsernamePayload struct {
	Username *string `json:"username"`
}

// MovePayload C→S move_player
type MovePayload struct {
	Axis  string   `json:"axis"`
	Force *float64 `json:"force"`
}

// ErrorPayload 可选的诊断回显
type ErrorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

var (
	ErrInvalidAxis  = errors.New("axis must be \"x\" or \"y\"")
	ErrInvalidForce = errors.New("force must be -1 or 1")
)

// PayloadError 单条消息的格式/校验错误，仅影响该消息
type PayloadError struct {
	Event string
	Err   error
}

func (e *PayloadError) Error() string {
	if e.Event == "" {
		return "malformed message: " + e.Err.Error()
	}
	return fmt.Sprintf("malformed %s payload: %v", e.Event, e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// decodeData 将负载解析为 T，缺失或类型错误都归为 PayloadError
func decodeData[T any](event string, data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, &PayloadError{Event: event, Err: errors.New("missing payload")}
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, &PayloadError{Event: event, Err: err}
	}
	return v, nil
}

// ParseUsername 解析并校验 change_username 负载
func ParseUsername(data json.RawMessage) (string, error) {
	p, err := decodeData[ChangeUsernamePayload](EventChangeUsername, data)
	if err != nil {
		return "", err
	}
	if p.Username == nil {
		return "", &PayloadError{Event: EventChangeUsername, Err: errors.New("missing username")}
	}
	return *p.Username, nil
}

// ParseMove 解析并校验 move_player 负载
func ParseMove(data json.RawMessage) (Axis, int, error) {
	p, err := decodeData[MovePayload](EventMovePlayer, data)
	if err != nil {
		return "", 0, err
	}
	axis := Axis(p.Axis)
	if !axis.Valid() {
		return "", 0, &PayloadError{Event: EventMovePlayer, Err: ErrInvalidAxis}
	}
	if p.Force == nil || (*p.Force != 1 && *p.Force != -1) {
		return "", 0, &PayloadError{Event: EventMovePlayer, Err: ErrInvalidForce}
	}
	return axis, int(*p.Force), nil
}
