package etl

import "github.com/noah-isme/registration-etl/internal/models"

// ExtractEntities splits validated records into per-table collections.
// Every collection keeps first-seen order and first-seen attributes.
func ExtractEntities(records []models.NormalizedRecord, cfg Config) models.Entities {
	var entities models.Entities
	seenDepartments := make(map[string]struct{})
	seenStudents := make(map[string]struct{})
	seenCourses := make(map[string]struct{})

	for _, rec := range records {
		if _, ok := seenDepartments[rec.Department]; !ok {
			seenDepartments[rec.Department] = struct{}{}
			dept := models.Department{Name: rec.Department}
			if head, ok := cfg.DepartmentHeads[rec.Department]; ok && head != "" {
				h := head
				dept.Head = &h
			}
			entities.Departments = append(entities.Departments, dept)
		}

		if _, ok := seenStudents[rec.Email]; !ok {
			seenStudents[rec.Email] = struct{}{}
			entities.Students = append(entities.Students, models.Student{
				FirstName:      rec.FirstName,
				LastName:       rec.LastName,
				Email:          rec.Email,
				DateOfBirth:    rec.DateOfBirth,
				Year:           rec.Year,
				Phone:          rec.Phone,
				DepartmentName: rec.Department,
			})
		}

		if !rec.HasCourse() {
			continue
		}

		if _, ok := seenCourses[rec.Course]; !ok {
			seenCourses[rec.Course] = struct{}{}
			entities.Courses = append(entities.Courses, models.Course{
				Name:           rec.Course,
				DepartmentName: rec.Department,
				Credits:        rec.Credits,
			})
		}

		entities.Enrollments = append(entities.Enrollments, models.Enrollment{
			StudentEmail:   rec.Email,
			CourseName:     rec.Course,
			EnrollmentDate: rec.EnrollmentDate,
			Grade:          rec.Grade,
		})
	}

	return entities
}
