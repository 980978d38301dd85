package permissions

import "fmt"

// Operation is a resource-scoped action subject to a permission check
type Operation int

const (
	OpReadCatalog Operation = iota + 1

	OpCreateProgram
	OpUpdateProgram
	OpDeleteProgram

	OpCreateGroup
	OpUpdateGroup
	OpDeleteGroup
	OpJoinGroup
	OpLeaveGroup

	OpCreateLesson
	OpUpdateLesson
	OpDeleteLesson
	OpCommentLesson

	OpListAttendance
	OpReadAttendance
	OpReadAttendanceByStudent
	OpMarkAttendance
	OpBulkMarkAttendance
	OpUpdateAttendance
	OpDeleteAttendance
	OpExportAttendance

	OpCreateMaterial
	OpUpdateMaterial
	OpDeleteMaterial

	OpListAllMessages
	OpReadLessonMessages
	OpCreateMessage
	OpUpdateMessage
	OpDeleteMessage

	OpManageUsers
	OpManageOwnAccount
)

var operationNames = map[Operation]string{
	OpReadCatalog:             "read_catalog",
	OpCreateProgram:           "create_program",
	OpUpdateProgram:           "update_program",
	OpDeleteProgram:           "delete_program",
	OpCreateGroup:             "create_group",
	OpUpdateGroup:             "update_group",
	OpDeleteGroup:             "delete_group",
	OpJoinGroup:               "join_group",
	OpLeaveGroup:              "leave_group",
	OpCreateLesson:            "create_lesson",
	OpUpdateLesson:            "update_lesson",
	OpDeleteLesson:            "delete_lesson",
	OpCommentLesson:           "comment_lesson",
	OpListAttendance:          "list_attendance",
	OpReadAttendance:          "read_attendance",
	OpReadAttendanceByStudent: "read_attendance_by_student",
	OpMarkAttendance:          "mark_attendance",
	OpBulkMarkAttendance:      "bulk_mark_attendance",
	OpUpdateAttendance:        "update_attendance",
	OpDeleteAttendance:        "delete_attendance",
	OpExportAttendance:        "export_attendance",
	OpCreateMaterial:          "create_material",
	OpUpdateMaterial:          "update_material",
	OpDeleteMaterial:          "delete_material",
	OpListAllMessages:         "list_all_messages",
	OpReadLessonMessages:      "read_lesson_messages",
	OpCreateMessage:           "create_message",
	OpUpdateMessage:           "update_message",
	OpDeleteMessage:           "delete_message",
	OpManageUsers:             "manage_users",
	OpManageOwnAccount:        "manage_own_account",
}

func (op Operation) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// Operations returns every declared operation
func Operations() []Operation {
	ops := make([]Operation, 0, len(operationNames))
	for op := OpReadCatalog; op <= OpManageOwnAccount; op++ {
		ops = append(ops, op)
	}
	return ops
}
