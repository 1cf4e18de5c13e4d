package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/emenuapi/emenu-backend/middlewares"
	"github.com/emenuapi/emenu-backend/services"
	"github.com/emenuapi/emenu-backend/utils"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	Users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{Users: users}
}

// Login exchanges username and password for a bearer token.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if !bindJSON(c, &input) {
		return
	}

	errs := services.ValidationErrors{}
	if input.Username == nil || *input.Username == "" {
		errs.Add("username", services.CodeRequired, "This field is required.")
	}
	if input.Password == nil || *input.Password == "" {
		errs.Add("password", services.CodeRequired, "This field is required.")
	}
	if len(errs) > 0 {
		utils.RespondValidation(c, errs)
		return
	}

	user, err := uc.Users.Authenticate(c.Request.Context(), *input.Username, *input.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		errs.Add(services.NonFieldErrors, services.CodeAuthorization, err.Error())
		utils.RespondValidation(c, errs)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.IsStaff)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("User %s logged in", user.Username)
	utils.RespondJSON(c, http.StatusOK, gin.H{"token": token})
}

// Logout revokes the token used for this request.
func (uc *UserController) Logout(c *gin.Context) {
	claims, token, ok := middlewares.CurrentClaims(c)
	if !ok {
		utils.RespondDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	until := time.Now().Add(utils.TokenTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, until)
	utils.RespondNoContent(c)
}

func (uc *UserController) Me(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		utils.RespondDetail(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	utils.RespondJSON(c, http.StatusOK, toUserResponse(*user))
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.Users.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	utils.RespondJSON(c, http.StatusOK, out)
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var input services.UserInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := uc.Users.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, toUserResponse(*user))
}
