package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// AdminAPI 管理与监控接口，所有世界状态的读写都经由世界协程
type AdminAPI struct {
	world *World
}

func NewAdminAPI(w *World) *AdminAPI {
	return &AdminAPI{world: w}
}

// HandleGetConfig GET /admin/config 返回当前可热更新的配置
func (a *AdminAPI) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	var cur RuntimeConfig
	if err := a.world.Call(r.Context(), func() { cur = a.world.RuntimeConfig() }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// HandleUpdateConfig POST /admin/config 以 JSON 载荷更新部分字段
// 示例：{"step":4,"emitRateMs":50}
func (a *AdminAPI) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch RuntimePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid json"))
		return
	}
	var (
		cur      RuntimeConfig
		applyErr error
	)
	err := a.world.Call(r.Context(), func() {
		applyErr = a.world.ApplyRuntime(patch)
		cur = a.world.RuntimeConfig()
	})
	switch {
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err)
	case applyErr != nil:
		writeError(w, http.StatusBadRequest, applyErr)
	default:
		writeJSON(w, http.StatusOK, cur)
	}
}

// HandleSessions GET /admin/sessions 列出所有会话
func (a *AdminAPI) HandleSessions(w http.ResponseWriter, r *http.Request) {
	var list []SessionInfo
	if err := a.world.Call(r.Context(), func() { list = a.world.Sessions() }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleAnnounce POST /admin/announce 向所有连接广播一条公告
// 示例：{"message":"server restarting soon"}
func (a *AdminAPI) HandleAnnounce(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	var (
		n       int
		sendErr error
	)
	if err := a.world.Call(r.Context(), func() { n, sendErr = a.world.EmitAll(EventAnnounce, body.Message) }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if sendErr != nil {
		writeError(w, http.StatusInternalServerError, sendErr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"delivered": n})
}

// HandleMetrics GET /metrics 输出运行指标（原子读取，不经过世界协程）
func (a *AdminAPI) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics": a.world.Metrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}
