package utils

import (
	"fmt"
	"math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleInspector,
	domain.RolePlanner,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

var campusAreas = []string{"东校园", "南校园", "北校园", "珠海校区", "深圳校区"}
var campusBuildings = []string{
	"图书馆", "教学楼", "实验楼", "行政楼", "学生活动中心",
	"体育馆", "饭堂", "宿舍楼", "信息楼", "公共课室",
}

// 名称中带上序号，保证同一个点位集内的名称不会重复
func GenerateRandomWaypoint(position int) domain.Waypoint {
	area := campusAreas[rand.Intn(len(campusAreas))]
	building := campusBuildings[rand.Intn(len(campusBuildings))]

	return domain.Waypoint{
		Name: fmt.Sprintf("%s%s%02d号巡检点", area, building, position+1),
		X:    rand.Float64() * 2000,
		Y:    rand.Float64() * 2000,
	}
}

func GenerateRandomWaypointSet() *domain.WaypointSet {
	ws := domain.WaypointSet{
		Name:        "巡检点位集" + GenerateRandomID(3, 3),
		Description: "巡检点位集描述" + GenerateRandomID(20, 10),
	}

	waypointsNum := rand.Intn(16) + 5
	waypoints := make([]domain.Waypoint, waypointsNum)
	for i := range waypoints {
		waypoints[i] = GenerateRandomWaypoint(i)
	}
	ws.Waypoints = waypoints

	return &ws
}

func GenerateRandomRunParameters() domain.RunParameters {
	return domain.RunParameters{
		PopulationSize: int32(rand.Intn(151) + 50),
		MaxGenerations: int32(rand.Intn(451) + 50),
		EliteRate:      float64(rand.Intn(31)) / 100,
		MutationRate:   float64(rand.Intn(31)) / 100,
		Seed:           rand.Int63(),
	}
}
