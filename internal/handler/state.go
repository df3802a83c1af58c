package handler

import "sync"

// UserState хранит состояние пользователя: выбранный автомобиль и
// незавершённое действие (например, редактирование напоминания)
type UserState struct {
	VehicleID  int64  // активный автомобиль, 0 - не выбран
	Action     string // "edit" или пусто
	ReminderID int64  // ID напоминания для редактирования
}

const actionEdit = "edit"

var (
	userStates = make(map[int64]*UserState)
	stateMutex sync.RWMutex
)

// GetUserState возвращает копию состояния пользователя
func GetUserState(chatID int64) (UserState, bool) {
	stateMutex.RLock()
	defer stateMutex.RUnlock()
	state, exists := userStates[chatID]
	if !exists {
		return UserState{}, false
	}
	return *state, true
}

// UpdateUserState изменяет состояние пользователя под блокировкой
func UpdateUserState(chatID int64, fn func(*UserState)) {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	state, exists := userStates[chatID]
	if !exists {
		state = &UserState{}
		userStates[chatID] = state
	}
	fn(state)
}

// ClearAction сбрасывает незавершённое действие, автомобиль остаётся выбранным
func ClearAction(chatID int64) {
	UpdateUserState(chatID, func(s *UserState) {
		s.Action = ""
		s.ReminderID = 0
	})
}

// ClearUserState очищает состояние пользователя
func ClearUserState(chatID int64) {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	delete(userStates, chatID)
}
