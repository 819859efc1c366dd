package http

import (
	"net/http"

	"github.com/DRSN-tech/shop-backend/internal/usecase"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
)

type UserHandler struct {
	userUsecase usecase.UserUC
	logger      logger.Logger
}

func NewUserHandler(userUsecase usecase.UserUC, logger logger.Logger) *UserHandler {
	return &UserHandler{userUsecase: userUsecase, logger: logger}
}

// registerUser
//
//	@Summary		Регистрация пользователя
//	@Description	Создаёт пользователя. Email должен быть уникальным.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerUserRequest	true	"Данные пользователя"
//	@Success		201		{object}	userResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		403		{object}	ErrorResponse	"Email уже занят"
//	@Router			/users [post]
func (h *UserHandler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warnf("register user: %s", err.Error())
		WriteError(w, err)
		return
	}

	info, err := h.userUsecase.Register(r.Context(), usecase.NewRegisterUserReq(req.Name, req.Email, req.Password))
	if err != nil {
		h.logger.Warnf("register user: %s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, newUserResponse(info))
}

// listUsers
//
//	@Summary	Список пользователей
//	@Tags		users
//	@Produce	json
//	@Success	200	{array}		userResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/users [get]
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userUsecase.ListUsers(r.Context())
	if err != nil {
		h.logger.Warnf("list users: %s", err.Error())
		WriteError(w, err)
		return
	}

	result := make([]userResponse, 0, len(users))
	for i := range users {
		result = append(result, newUserResponse(&users[i]))
	}

	WriteSuccess(w, http.StatusOK, result)
}
