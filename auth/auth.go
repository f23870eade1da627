package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bugtrail/common"
	emailpkg "bugtrail/email"
	"bugtrail/models"
)

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/auth")
	{
		group.POST("/signup", a.signup)
		group.POST("/login", a.login)
		group.GET("/logout", a.logout)
		group.GET("/confirm/:token", a.confirmEmail)
		group.GET("/me", a.me)
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthModule) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		common.Error(c, http.StatusBadRequest, "Missing required fields: username, email, password")
		return
	}

	var existing models.User
	err := a.db.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		common.Error(c, http.StatusBadRequest, "User already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		common.Error(c, http.StatusInternalServerError, "Failed to check existing users: "+err.Error())
		return
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	verificationToken, err := generateToken()
	if err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to generate verification token")
		return
	}

	user := models.User{
		Username:               req.Username,
		Email:                  req.Email,
		Password:               passwordHash,
		IsActive:               true,
		EmailVerificationToken: verificationToken,
	}
	if err := a.db.Create(&user).Error; err != nil {
		common.Error(c, http.StatusBadRequest, "Failed to create user: "+err.Error())
		return
	}

	// Delivery failure does not roll back the signup; the user can be
	// re-verified later from the backoffice.
	emailService := emailpkg.NewEmailService()
	if emailErr := emailService.SendVerificationEmail(user.Email, verificationToken); emailErr != nil {
		log.Printf("Failed to send verification email to %s: %v", user.Email, emailErr)
	}

	common.Created(c, "User registered successfully", gin.H{"user_id": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *AuthModule) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		common.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !checkPasswordHash(req.Password, user.Password) {
		common.Error(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.IsActive {
		common.Error(c, http.StatusUnauthorized, "Account is disabled")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	common.OK(c, gin.H{"user_id": user.ID, "username": user.Username})
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	common.OK(c, gin.H{"logged_out": true})
}

func (a *AuthModule) confirmEmail(c *gin.Context) {
	token := c.Param("token")

	var user models.User
	if err := a.db.Where("email_verification_token = ?", token).First(&user).Error; err != nil {
		common.Error(c, http.StatusNotFound, "Invalid or expired token")
		return
	}

	if user.EmailVerified {
		common.OK(c, gin.H{"message": "Email already confirmed"})
		return
	}

	user.EmailVerified = true
	user.EmailVerificationToken = ""
	if err := a.db.Save(&user).Error; err != nil {
		common.Error(c, http.StatusInternalServerError, "Failed to confirm email: "+err.Error())
		return
	}

	common.OK(c, gin.H{"message": "Email confirmed successfully"})
}

func (a *AuthModule) me(c *gin.Context) {
	session := sessions.Default(c)
	userID := session.Get("user_id")
	if userID == nil {
		common.Error(c, http.StatusUnauthorized, "Not logged in")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		common.Error(c, http.StatusUnauthorized, "Not logged in")
		return
	}

	common.OK(c, user)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
