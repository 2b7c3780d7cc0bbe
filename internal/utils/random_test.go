package utils

import (
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateRandomChineseName(t *testing.T) {
	for i := 0; i < 20; i++ {
		name := GenerateRandomChineseName()

		// 一个姓氏加一到两个字
		length := utf8.RuneCountInString(name)
		require.GreaterOrEqual(t, length, 2)
		require.LessOrEqual(t, length, 3)
	}
}

func TestGenerateRandomOTP(t *testing.T) {
	for i := 0; i < 20; i++ {
		otp := GenerateRandomOTP()

		require.Len(t, otp, 6)
		for _, c := range otp {
			require.True(t, unicode.IsDigit(c))
		}
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	password := GenerateRandomPassword(12)
	require.Len(t, password, 12)

	// 多次生成应该产生不同的密码
	other := GenerateRandomPassword(12)
	require.NotEqual(t, password, other)
}

func TestGenerateRandomUser(t *testing.T) {
	user, err := GenerateRandomUser("ecnc2024", "mail.sysu.edu.cn")
	require.NoError(t, err)

	require.NotEmpty(t, user.Username)
	require.NotEmpty(t, user.FullName)
	require.True(t, strings.HasSuffix(user.Email, "@mail.sysu.edu.cn"))
	require.Contains(t, []domain.Role{domain.RoleInspector, domain.RolePlanner, domain.RoleAdmin}, user.Role)

	// 密码哈希必须能校验通过
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("ecnc2024")))
}

func TestGenerateRandomWaypointSet(t *testing.T) {
	for i := 0; i < 10; i++ {
		ws := GenerateRandomWaypointSet()

		require.NotEmpty(t, ws.Name)
		require.GreaterOrEqual(t, len(ws.Waypoints), 5)
		require.LessOrEqual(t, len(ws.Waypoints), 20)

		// 生成的点位集必须能通过校验，否则插入后无法用于规划
		require.NoError(t, ValidateWaypointSetPoints(ws))
	}
}

func TestGenerateRandomRunParameters(t *testing.T) {
	for i := 0; i < 20; i++ {
		params := GenerateRandomRunParameters()

		require.GreaterOrEqual(t, params.PopulationSize, int32(50))
		require.LessOrEqual(t, params.PopulationSize, int32(200))
		require.GreaterOrEqual(t, params.MaxGenerations, int32(50))
		require.LessOrEqual(t, params.MaxGenerations, int32(500))
		require.GreaterOrEqual(t, params.EliteRate, 0.0)
		require.LessOrEqual(t, params.EliteRate, 0.3)
		require.GreaterOrEqual(t, params.MutationRate, 0.0)
		require.LessOrEqual(t, params.MutationRate, 0.3)
		require.GreaterOrEqual(t, params.Seed, int64(0))
	}
}
