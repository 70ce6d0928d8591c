package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

const (
	DefaultDays        uint64 = 5
	DefaultHoursPerDay uint64 = 12
)

var ErrInvalidInput = errors.New("invalid input")

type SessionType int

const (
	Lecture SessionType = iota
	Exercise
	Lab
)

var sessionTypeNames = map[SessionType]string{
	Lecture:  "lecture",
	Exercise: "exercise",
	Lab:      "lab",
}

func (sessionType SessionType) String() string {
	if name, ok := sessionTypeNames[sessionType]; ok {
		return name
	}
	return fmt.Sprintf("SessionType(%d)", int(sessionType))
}

// ParseSessionType accepts both the long names and the single-letter codes P (lecture), V (exercise) and L (lab)
func ParseSessionType(value string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "p", "lecture":
		return Lecture, nil
	case "v", "exercise":
		return Exercise, nil
	case "l", "lab":
		return Lab, nil
	}
	return 0, fmt.Errorf("%w: unknown session type %q", ErrInvalidInput, value)
}

type RawSession struct {
	Subject       string   `validate:"required"`
	Type          string   `validate:"required"`
	Teacher       string   `validate:"required"`
	Groups        []string `validate:"required,min=1,dive,required"`
	Duration      uint64   `validate:"gte=1"`
	Classrooms    []string `validate:"dive,required"`
	ClassroomType string
}

type RawClassroom struct {
	Name string `validate:"required"`
	Type string
}

type RawModelInput struct {
	Days        uint64
	HoursPerDay uint64
	Classrooms  []RawClassroom `validate:"required,min=1,dive"`
	Sessions    []RawSession   `validate:"required,min=1,dive"`
}

type Subject struct {
	Id   uint64
	Name string
}

type Teacher struct {
	Id   uint64
	Name string
}

type Group struct {
	Id   uint64
	Name string
}

type Classroom struct {
	Id   uint64
	Name string
	Type string
}

type Session struct {
	Id         uint64
	Subject    uint64
	Teacher    uint64
	Type       SessionType
	Groups     []uint64
	Duration   uint64
	Classrooms []uint64 // Eligible classrooms
}

// Instance is the immutable problem handed to the optimizer. Every id equals the entity's position in its slice
type Instance struct {
	Days        uint64
	HoursPerDay uint64
	Subjects    []Subject
	Teachers    []Teacher
	Groups      []Group
	Classrooms  []Classroom
	Sessions    []Session
}

func (instance Instance) Timeslots() uint64 {
	return instance.Days * instance.HoursPerDay
}

func InputFromJson(file string) (Instance, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Instance{}, err
	}
	var inputJson map[string]any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Instance{}, err
	}

	var rawInput RawModelInput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true, // Durations are frequently written as strings
		Result:           &rawInput,
	})
	if err != nil {
		return Instance{}, err
	}
	if err := decoder.Decode(inputJson); err != nil {
		return Instance{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return ProcessRawInput(rawInput)
}

func ProcessRawInput(rawInput RawModelInput) (Instance, error) {
	if err := validator.New().Struct(rawInput); err != nil {
		return Instance{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	instance := Instance{
		Days:        lo.Ternary(rawInput.Days == 0, DefaultDays, rawInput.Days),
		HoursPerDay: lo.Ternary(rawInput.HoursPerDay == 0, DefaultHoursPerDay, rawInput.HoursPerDay),
	}

	//** Manage classrooms
	classroomIds := make(map[string]uint64)
	for _, rawClassroom := range rawInput.Classrooms {
		if _, ok := classroomIds[rawClassroom.Name]; ok {
			return Instance{}, fmt.Errorf("%w: duplicate classroom %q", ErrInvalidInput, rawClassroom.Name)
		}
		classroom := Classroom{
			Id:   uint64(len(instance.Classrooms)),
			Name: rawClassroom.Name,
			Type: rawClassroom.Type,
		}
		classroomIds[classroom.Name] = classroom.Id
		instance.Classrooms = append(instance.Classrooms, classroom)
	}

	subjectIds, teacherIds, groupIds := make(map[string]uint64), make(map[string]uint64), make(map[string]uint64)
	for index, rawSession := range rawInput.Sessions {
		sessionType, err := ParseSessionType(rawSession.Type)
		if err != nil {
			return Instance{}, fmt.Errorf("session %d: %w", index, err)
		}
		if rawSession.Duration > instance.HoursPerDay {
			return Instance{}, fmt.Errorf("%w: session %d lasts %d hours but a day has %d", ErrInvalidInput, index, rawSession.Duration, instance.HoursPerDay)
		}

		//** Manage subject, teacher and groups (created on first appearance)
		subject := findOrCreate(subjectIds, rawSession.Subject, func(id uint64) {
			instance.Subjects = append(instance.Subjects, Subject{Id: id, Name: rawSession.Subject})
		})
		teacher := findOrCreate(teacherIds, rawSession.Teacher, func(id uint64) {
			instance.Teachers = append(instance.Teachers, Teacher{Id: id, Name: rawSession.Teacher})
		})
		groups := lo.Map(lo.Uniq(rawSession.Groups), func(name string, _ int) uint64 {
			return findOrCreate(groupIds, name, func(id uint64) {
				instance.Groups = append(instance.Groups, Group{Id: id, Name: name})
			})
		})

		//** Manage eligible classrooms
		classrooms, err := eligibleClassrooms(rawSession, instance.Classrooms, classroomIds)
		if err != nil {
			return Instance{}, fmt.Errorf("session %d: %w", index, err)
		}

		instance.Sessions = append(instance.Sessions, Session{
			Id:         uint64(len(instance.Sessions)),
			Subject:    subject,
			Teacher:    teacher,
			Type:       sessionType,
			Groups:     groups,
			Duration:   rawSession.Duration,
			Classrooms: classrooms,
		})
	}

	return instance, nil
}

func findOrCreate(ids map[string]uint64, name string, create func(id uint64)) uint64 {
	if id, ok := ids[name]; ok {
		return id
	}
	id := uint64(len(ids))
	ids[name] = id
	create(id)
	return id
}

func eligibleClassrooms(rawSession RawSession, classrooms []Classroom, classroomIds map[string]uint64) ([]uint64, error) {
	var eligible []uint64
	if len(rawSession.Classrooms) > 0 {
		for _, name := range lo.Uniq(rawSession.Classrooms) {
			id, ok := classroomIds[name]
			if !ok {
				return nil, fmt.Errorf("%w: unknown classroom %q", ErrInvalidInput, name)
			}
			eligible = append(eligible, id)
		}
	} else {
		eligible = lo.FilterMap(classrooms, func(classroom Classroom, _ int) (uint64, bool) {
			return classroom.Id, classroom.Type == rawSession.ClassroomType
		})
	}

	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no eligible classroom for %v (type %q)", ErrInvalidInput, rawSession.Subject, rawSession.ClassroomType)
	}
	return eligible, nil
}
