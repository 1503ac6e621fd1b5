package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/config"
	"github.com/onra/voice/internal/domain"
	"github.com/onra/voice/internal/store"
)

type Handlers struct {
	Store store.Store
	Cfg   *config.Config
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func storeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrUsernameTaken), errors.Is(err, store.ErrRoomNameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("store error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ---- auth ----

func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credentials"})
		return
	}
	user, err := h.Store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessionUserKey, int(user.ID))
	if err := sess.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("username", user.Username).Msg("logged in")
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handlers) Me(c *gin.Context) {
	sess := sessions.Default(c)
	uid, _ := sess.Get(sessionUserKey).(int)
	user, err := h.Store.GetUser(c.Request.Context(), domain.UserID(uid))
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ---- ICE config ----

// ICEServers hands clients the STUN/TURN set to build RTCPeerConnections
// against; the relay itself never touches media.
func (h *Handlers) ICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.Cfg.PeerICEServers()})
}

// ---- users ----

func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.Store.GetAllUsers(c.Request.Context())
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), domain.UserID(id))
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var req struct {
		Username string        `json:"username" binding:"required"`
		Password string        `json:"password" binding:"required"`
		Role     domain.Role   `json:"role"`
		RoomID   domain.RoomID `json:"roomId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	user, err := domain.NewUser(req.Username, req.Password, req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user.RoomID = req.RoomID
	created, err := h.Store.CreateUser(c.Request.Context(), user)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), domain.UserID(id))
	if err != nil {
		storeErr(c, err)
		return
	}
	var req struct {
		Username *string        `json:"username"`
		Password *string        `json:"password"`
		Role     *domain.Role   `json:"role"`
		RoomID   *domain.RoomID `json:"roomId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Username != nil {
		if err := user.SetUsername(*req.Username); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Password != nil {
		user.Password = *req.Password
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.RoomID != nil {
		user.RoomID = *req.RoomID
	}
	updated, err := h.Store.UpdateUser(c.Request.Context(), user)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteUser(c.Request.Context(), domain.UserID(id)); err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ---- rooms ----

func (h *Handlers) ListRooms(c *gin.Context) {
	rooms, err := h.Store.GetAllRooms(c.Request.Context())
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handlers) GetRoom(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	room, err := h.Store.GetRoom(c.Request.Context(), domain.RoomID(id))
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *Handlers) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	room, err := domain.NewRoom(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.Store.CreateRoom(c.Request.Context(), room)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handlers) UpdateRoom(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	room, err := h.Store.GetRoom(c.Request.Context(), domain.RoomID(id))
	if err != nil {
		storeErr(c, err)
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	room.Name = req.Name
	updated, err := h.Store.UpdateRoom(c.Request.Context(), room)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handlers) DeleteRoom(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Store.DeleteRoom(c.Request.Context(), domain.RoomID(id)); err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ---- recordings ----

func (h *Handlers) ListRecordings(c *gin.Context) {
	var userID domain.UserID
	if q := c.Query("userId"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		userID = domain.UserID(n)
	}
	recs, err := h.Store.GetRecordings(c.Request.Context(), userID)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handlers) GetRecording(c *gin.Context) {
	rec, err := h.Store.GetRecording(c.Request.Context(), c.Param("id"))
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handlers) CreateRecording(c *gin.Context) {
	var req struct {
		RoomID   domain.RoomID `json:"roomId"`
		Audio    string        `json:"audio" binding:"required"`
		Duration float64       `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	sess := sessions.Default(c)
	uid, _ := sess.Get(sessionUserKey).(int)

	rec, err := domain.NewRecording(domain.UserID(uid), req.RoomID, req.Audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec.Duration = req.Duration
	created, err := h.Store.CreateRecording(c.Request.Context(), rec)
	if err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handlers) DeleteRecording(c *gin.Context) {
	if err := h.Store.DeleteRecording(c.Request.Context(), c.Param("id")); err != nil {
		storeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
